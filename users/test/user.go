package test

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/test"
	"github.com/sage3280/tracker/users"
)

const Password = "correct horse battery staple"

func RandomUser() users.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	return users.User{
		Username:     fmt.Sprintf("user%d", test.Faker.IntBetween(100000, 999999)),
		Email:        pointer.FromAny(test.Faker.Internet().Email()),
		FullName:     test.Faker.Person().Name(),
		PasswordHash: string(hash),
		Roles:        []string{users.RoleMedico},
		IsActive:     true,
	}
}

func RandomNewUser() users.NewUser {
	return users.NewUser{
		Username: fmt.Sprintf("user%d", test.Faker.IntBetween(100000, 999999)),
		Email:    pointer.FromAny(test.Faker.Internet().Email()),
		FullName: test.Faker.Person().Name(),
		Password: Password,
		Roles:    []string{users.RoleMedico},
	}
}
