package users_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/store"
	dbTest "github.com/sage3280/tracker/store/test"
	"github.com/sage3280/tracker/users"
	usersTest "github.com/sage3280/tracker/users/test"
)

var _ = Describe("Users Repository", func() {
	var database *mongo.Database
	var repo users.Repository

	BeforeEach(func() {
		database = dbTest.GetTestDatabase()
		_, err := database.Collection(users.CollectionName).DeleteMany(context.Background(), bson.M{})
		Expect(err).ToNot(HaveOccurred())

		lifecycle := fxtest.NewLifecycle(GinkgoT())
		repo, err = users.NewRepository(database, zap.NewNop().Sugar(), lifecycle)
		Expect(err).ToNot(HaveOccurred())

		lifecycle.RequireStart()
	})

	Describe("Create", func() {
		It("persists the account and stamps timestamps", func() {
			user := usersTest.RandomUser()

			created, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())
			Expect(created.Id).ToNot(BeNil())
			Expect(created.Username).To(Equal(user.Username))
			Expect(created.CreatedTime).To(BeTemporally("~", time.Now(), time.Second))
			Expect(created.LastLoginAt).To(BeNil())
			Expect(created.FailedAttempts).To(BeZero())
		})

		It("rejects duplicate usernames", func() {
			user := usersTest.RandomUser()
			_, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())

			duplicate := usersTest.RandomUser()
			duplicate.Username = user.Username

			_, err = repo.Create(context.Background(), &duplicate)
			Expect(err).To(MatchError(users.ErrDuplicate))
		})

		It("rejects duplicate emails", func() {
			user := usersTest.RandomUser()
			_, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())

			duplicate := usersTest.RandomUser()
			duplicate.Email = user.Email

			_, err = repo.Create(context.Background(), &duplicate)
			Expect(err).To(MatchError(users.ErrDuplicate))
		})

		It("allows multiple accounts without email", func() {
			first := usersTest.RandomUser()
			first.Email = nil
			second := usersTest.RandomUser()
			second.Email = nil

			_, err := repo.Create(context.Background(), &first)
			Expect(err).ToNot(HaveOccurred())
			_, err = repo.Create(context.Background(), &second)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("returns stored accounts by id and username", func() {
			user := usersTest.RandomUser()
			created, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())

			byId, err := repo.Get(context.Background(), created.Id.Hex())
			Expect(err).ToNot(HaveOccurred())
			Expect(byId.Username).To(Equal(created.Username))

			byUsername, err := repo.GetByUsername(context.Background(), created.Username)
			Expect(err).ToNot(HaveOccurred())
			Expect(byUsername.Id).To(Equal(created.Id))
		})

		It("returns not found for unknown accounts", func() {
			_, err := repo.Get(context.Background(), "ffffffffffffffffffffffff")
			Expect(err).To(MatchError(users.ErrNotFound))

			_, err = repo.GetByUsername(context.Background(), "nobody")
			Expect(err).To(MatchError(users.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("filters by role and active state", func() {
			admin := usersTest.RandomUser()
			admin.Roles = []string{users.RoleAdmin}
			disabled := usersTest.RandomUser()
			disabled.IsActive = false

			for _, user := range []*users.User{&admin, &disabled} {
				_, err := repo.Create(context.Background(), user)
				Expect(err).ToNot(HaveOccurred())
			}

			byRole, err := repo.List(context.Background(), &users.Filter{Role: pointer.FromAny(users.RoleAdmin)}, store.DefaultPagination())
			Expect(err).ToNot(HaveOccurred())
			Expect(byRole).To(HaveLen(1))
			Expect(byRole[0].Username).To(Equal(admin.Username))

			active, err := repo.List(context.Background(), &users.Filter{IsActive: pointer.FromAny(true)}, store.DefaultPagination())
			Expect(err).ToNot(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].Username).To(Equal(admin.Username))
		})
	})

	Describe("SetRoles", func() {
		It("replaces the role set", func() {
			user := usersTest.RandomUser()
			created, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())

			updated, err := repo.SetRoles(context.Background(), created.Id.Hex(), []string{users.RoleAdmin, users.RoleMedico})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Roles).To(ConsistOf(users.RoleAdmin, users.RoleMedico))
		})
	})

	Describe("SetActive", func() {
		It("disables and re-enables accounts", func() {
			user := usersTest.RandomUser()
			created, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())

			disabled, err := repo.SetActive(context.Background(), created.Id.Hex(), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(disabled.IsActive).To(BeFalse())

			enabled, err := repo.SetActive(context.Background(), created.Id.Hex(), true)
			Expect(err).ToNot(HaveOccurred())
			Expect(enabled.IsActive).To(BeTrue())
		})
	})

	Describe("RecordLogin", func() {
		It("stamps the login time and resets failed attempts", func() {
			user := usersTest.RandomUser()
			created, err := repo.Create(context.Background(), &user)
			Expect(err).ToNot(HaveOccurred())

			Expect(repo.RecordFailedLogin(context.Background(), *created.Id)).To(Succeed())
			Expect(repo.RecordFailedLogin(context.Background(), *created.Id)).To(Succeed())

			afterFailures, err := repo.Get(context.Background(), created.Id.Hex())
			Expect(err).ToNot(HaveOccurred())
			Expect(afterFailures.FailedAttempts).To(Equal(2))

			Expect(repo.RecordLogin(context.Background(), *created.Id)).To(Succeed())

			afterLogin, err := repo.Get(context.Background(), created.Id.Hex())
			Expect(err).ToNot(HaveOccurred())
			Expect(afterLogin.FailedAttempts).To(BeZero())
			Expect(afterLogin.LastLoginAt).To(PointTo(BeTemporally("~", time.Now(), time.Second)))
		})
	})
})
