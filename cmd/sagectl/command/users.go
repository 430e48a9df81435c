package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/users"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersCreateParams = struct {
	Username string
	FullName string
	Email    string
	Password string
	Roles    []string
}{}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long:  "The create command adds an account directly to the database. Use it to bootstrap the first administrator.",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(createUser) },
}

func createUser(service users.Service) error {
	newUser := users.NewUser{
		Username: usersCreateParams.Username,
		FullName: usersCreateParams.FullName,
		Password: usersCreateParams.Password,
		Roles:    usersCreateParams.Roles,
	}
	if usersCreateParams.Email != "" {
		newUser.Email = pointer.FromAny(usersCreateParams.Email)
	}

	user, err := service.Create(context.Background(), newUser)
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s) with roles %v\n", user.Username, user.Id.Hex(), user.Roles)
	return nil
}

func init() {
	usersCreateCmd.Flags().StringVarP(&usersCreateParams.Username, "username", "u", "", "Username")
	usersCreateCmd.Flags().StringVarP(&usersCreateParams.FullName, "name", "n", "", "Full name")
	usersCreateCmd.Flags().StringVar(&usersCreateParams.Email, "email", "", "Email address")
	usersCreateCmd.Flags().StringVarP(&usersCreateParams.Password, "password", "p", "", "Password")
	usersCreateCmd.Flags().StringSliceVarP(&usersCreateParams.Roles, "roles", "r", []string{users.RoleAdmin}, "Roles")
	_ = usersCreateCmd.MarkFlagRequired("username")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}
