package util

import gonanoid "github.com/matoous/go-nanoid/v2"

const alphaNumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomKey returns a 25-character id drawn from the alphanumeric
// alphabet, used by the RANDOMKEY command.
func RandomKey() string {
	id, err := gonanoid.Generate(alphaNumeric, 25)
	if err != nil {
		// Generate only fails if the alphabet is malformed, which it
		// never is here.
		panic(err)
	}
	return id
}
