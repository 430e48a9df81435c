package test

import (
	"fmt"
	"time"

	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/store/test"
)

var epsNames = []string{"Nueva EPS", "Sanitas", "Sura", "Salud Total", "Coosalud", "Mutual Ser"}

func RandomPatient() patients.Patient {
	birthDate := test.Faker.Time().Time(time.Now().AddDate(-18, 0, 0))
	age := int(time.Since(birthDate).Hours() / 24 / 365)

	return patients.Patient{
		DocumentType:   pointer.FromAny("CC"),
		DocumentNumber: fmt.Sprintf("%d", test.Faker.IntBetween(10000000, 999999999)),
		FullName:       test.Faker.Person().Name(),
		BirthDate:      &birthDate,
		Age:            &age,
		Sex:            RandomSex(),
		Phone:          pointer.FromAny(fmt.Sprintf("3%09d", test.Faker.IntBetween(100000000, 999999999))),
		Email:          pointer.FromAny(test.Faker.Internet().Email()),
		Address:        pointer.FromAny(test.Faker.Address().Address()),
		Neighborhood:   pointer.FromAny(test.Faker.Lorem().Word()),
		City:           pointer.FromAny(test.Faker.Address().City()),
		EpsName:        pointer.FromAny(test.Faker.RandomStringElement(epsNames)),
		IsActive:       true,
	}
}

// RandomChronicPatient carries the diagnoses text matching its flags so
// reclassification keeps the record consistent.
func RandomChronicPatient() patients.Patient {
	patient := RandomPatient()
	patient.Diagnoses = pointer.FromAny("HTA - DM tipo 2")
	patient.Chronic.IsHypertensive = true
	patient.Chronic.IsDiabetic = true
	return patient
}

func RandomSex() patients.Sex {
	return patients.Sex(test.Faker.RandomStringElement([]string{"M", "F"}))
}
