// Package phone canonicalizes Indian mobile numbers.
package phone

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/nyaruka/phonenumbers"
)

// Region is the default region for numbers written without a country code.
const Region = "IN"

const indiaCallingCode = 91

var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// ErrInvalid is returned for anything that is not a 10-digit Indian mobile number.
var ErrInvalid = errors.New("invalid indian mobile number")

// Normalize returns the E.164 form (+91XXXXXXXXXX) of an Indian mobile
// number given with or without the +91 or 0 prefix.
func Normalize(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, Region)
	if err != nil {
		return "", ErrInvalid
	}
	if num.GetCountryCode() != indiaCallingCode {
		return "", ErrInvalid
	}
	national := strconv.FormatUint(num.GetNationalNumber(), 10)
	if !mobilePattern.MatchString(national) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Valid reports whether raw normalizes.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
