package roster_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/roster"
)

var _ = Describe("FindDuplicateClusters", func() {
	newRow := func(number int, document, fullName string, birthDate *time.Time) roster.Row {
		return roster.Row{
			Number: number,
			Patient: patients.Patient{
				DocumentNumber: document,
				FullName:       fullName,
				BirthDate:      birthDate,
			},
		}
	}

	date := func(year, month, day int) *time.Time {
		value := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &value
	}

	It("returns no clusters when identities differ", func() {
		rows := []roster.Row{
			newRow(1, "1", "Ana Pérez", date(1980, 5, 15)),
			newRow(2, "2", "Luis Mora", date(1985, 1, 1)),
		}

		clusters, err := roster.FindDuplicateClusters(rows)
		Expect(err).ToNot(HaveOccurred())
		Expect(clusters).To(BeEmpty())
	})

	It("groups rows sharing a name and birth date under different documents", func() {
		rows := []roster.Row{
			newRow(1, "100", "Ana María Pérez", date(1980, 5, 15)),
			newRow(2, "200", "ana maria perez", date(1980, 5, 15)),
			newRow(3, "300", "Luis Mora", date(1985, 1, 1)),
		}

		clusters, err := roster.FindDuplicateClusters(rows)
		Expect(err).ToNot(HaveOccurred())
		Expect(clusters).To(HaveLen(1))
		Expect(clusters[0].Documents).To(Equal([]string{"100", "200"}))
	})

	It("keeps transitive matches in a single cluster", func() {
		rows := []roster.Row{
			newRow(1, "1", "Ana Pérez", date(1980, 5, 15)),
			newRow(2, "2", "Ana Perez", date(1980, 5, 15)),
			newRow(3, "3", "ANA PEREZ", date(1980, 5, 15)),
		}

		clusters, err := roster.FindDuplicateClusters(rows)
		Expect(err).ToNot(HaveOccurred())
		Expect(clusters).To(HaveLen(1))
		Expect(clusters[0].Documents).To(Equal([]string{"1", "2", "3"}))
	})

	It("does not link rows with the same name but different birth dates", func() {
		rows := []roster.Row{
			newRow(1, "1", "Ana Pérez", date(1980, 5, 15)),
			newRow(2, "2", "Ana Pérez", date(1981, 5, 15)),
		}

		clusters, err := roster.FindDuplicateClusters(rows)
		Expect(err).ToNot(HaveOccurred())
		Expect(clusters).To(BeEmpty())
	})

	It("ignores rows missing a name or a birth date", func() {
		rows := []roster.Row{
			newRow(1, "1", "Ana Pérez", nil),
			newRow(2, "2", "Ana Pérez", nil),
			newRow(3, "3", "", date(1980, 5, 15)),
		}

		clusters, err := roster.FindDuplicateClusters(rows)
		Expect(err).ToNot(HaveOccurred())
		Expect(clusters).To(BeEmpty())
	})

	It("reports multiple clusters sorted by their first document", func() {
		rows := []roster.Row{
			newRow(1, "900", "Zoe Gil", date(1999, 9, 9)),
			newRow(2, "901", "Zoe Gil", date(1999, 9, 9)),
			newRow(3, "100", "Ana Pérez", date(1980, 5, 15)),
			newRow(4, "101", "Ana Pérez", date(1980, 5, 15)),
		}

		clusters, err := roster.FindDuplicateClusters(rows)
		Expect(err).ToNot(HaveOccurred())
		Expect(clusters).To(HaveLen(2))
		Expect(clusters[0].Documents).To(Equal([]string{"100", "101"}))
		Expect(clusters[1].Documents).To(Equal([]string{"900", "901"}))
	})
})
