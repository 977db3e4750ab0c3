package identity

import (
	"strings"
	"unicode"

	"github.com/terraincognita07/comoestou/internal/models"
)

// User is the signed-in account as other packages see it.
type User struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	PhotoURL    *string `json:"photoURL"`
}

func userFromModel(user models.User) User {
	result := User{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}
	if photo := strings.TrimSpace(user.PhotoURL); photo != "" {
		result.PhotoURL = &photo
	}
	return result
}

func (user User) Profile() models.UserProfile {
	return models.UserProfile{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PhotoURL:    user.PhotoURL,
	}
}

// Initials takes the first letter of the first and last names, e.g. "AS"
// for "Ana Maria Souza". Without a name it falls back to "U".
func (user User) Initials() string {
	names := strings.Fields(user.DisplayName)
	if len(names) == 0 {
		return "U"
	}
	initials := string(unicode.ToUpper(firstRune(names[0])))
	if len(names) > 1 {
		initials += string(unicode.ToUpper(firstRune(names[len(names)-1])))
	}
	return initials
}

func firstRune(value string) rune {
	for _, char := range value {
		return char
	}
	return 'U'
}
