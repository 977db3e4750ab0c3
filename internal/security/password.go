package security

import (
	"crypto/rand"
	"errors"
)

// PasswordAlphabet leaves out characters that are easy to misread.
const PasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const minTemporaryPasswordLength = 8

var errAlphabetSize = errors.New("alphabet must have between 1 and 256 characters")

// TemporaryPassword returns a random password of at least eight characters
// drawn from PasswordAlphabet.
func TemporaryPassword(length int) (string, error) {
	if length < minTemporaryPasswordLength {
		length = minTemporaryPasswordLength
	}
	return randomFromAlphabet(length, PasswordAlphabet)
}

// randomFromAlphabet rejects bytes past the largest multiple of the
// alphabet size so every character is equally likely.
func randomFromAlphabet(length int, alphabet string) (string, error) {
	size := len(alphabet)
	if size == 0 || size > 256 {
		return "", errAlphabetSize
	}
	limit := 256 - 256%size

	result := make([]byte, 0, length)
	buffer := make([]byte, length)
	for len(result) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", err
		}
		for _, value := range buffer {
			if int(value) >= limit {
				continue
			}
			result = append(result, alphabet[int(value)%size])
			if len(result) == length {
				break
			}
		}
	}
	return string(result), nil
}
