// Command adminctl creates staff accounts and resets passwords interactively.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/auth"
	mongodoc "github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/mongo"
)

const (
	actionCreate = "Create a staff account"
	actionReset  = "Reset a password"
)

func main() {
	mongoURI := flag.String("mongo-uri", envOrDefault("MONGO_URI", "mongodb://localhost:27017"), "MongoDB 接続文字列")
	dbName := flag.String("db", envOrDefault("MONGO_DB", "bizsurvey"), "データベース名")
	collection := flag.String("collection", envOrDefault("USER_COLLECTION", "admin_users"), "ユーザーコレクション名")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	repo := mongodoc.NewUserRepository(client.Database(*dbName), *collection)
	users := adminapp.NewUserService(repo, auth.NewBcryptHasher(0))

	var action string
	if err := survey.AskOne(&survey.Select{
		Message: "What do you want to do?",
		Options: []string{actionCreate, actionReset},
		Default: actionCreate,
	}, &action); err != nil {
		exit(err)
	}

	switch action {
	case actionCreate:
		err = createUser(ctx, users)
	case actionReset:
		err = resetPassword(ctx, repo, users)
	}
	if err != nil {
		exit(err)
	}
}

func createUser(ctx context.Context, users adminapp.UserService) error {
	answers := struct {
		Email string
		Name  string
		Role  string
	}{}
	questions := []*survey.Question{
		{
			Name:      "email",
			Prompt:    &survey.Input{Message: "Email:"},
			Validate:  survey.ComposeValidators(survey.Required, validateEmail),
			Transform: survey.TransformString(strings.TrimSpace),
		},
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Display name:"},
			Validate: survey.Required,
		},
		{
			Name: "role",
			Prompt: &survey.Select{
				Message: "Role:",
				Options: []string{admindomain.RoleViewer.String(), admindomain.RoleReviewer.String(), admindomain.RoleAdmin.String()},
				Default: admindomain.RoleReviewer.String(),
				Help:    "viewer: read only / reviewer: change survey status / admin: everything",
			},
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}
	password, err := askPassword()
	if err != nil {
		return err
	}

	user, err := users.Create(ctx, adminapp.CreateUserCommand{
		Email:    answers.Email,
		Name:     answers.Name,
		Password: password,
		Role:     answers.Role,
	})
	if errors.Is(err, domainerr.ErrConflict) {
		return fmt.Errorf("an account for %s already exists", answers.Email)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s) with role %s\n", user.Email, user.ID, user.Role)
	return nil
}

func resetPassword(ctx context.Context, repo adminapp.UserRepository, users adminapp.UserService) error {
	var email string
	if err := survey.AskOne(&survey.Input{Message: "Email:"}, &email,
		survey.WithValidator(survey.Required), survey.WithValidator(validateEmail)); err != nil {
		return err
	}
	normalized, _ := admindomain.NewEmail(email)
	user, err := repo.FindByEmail(ctx, normalized.String())
	if errors.Is(err, domainerr.ErrNotFound) {
		return fmt.Errorf("no account for %s", email)
	}
	if err != nil {
		return err
	}

	password, err := askPassword()
	if err != nil {
		return err
	}
	reactivate := false
	if !user.Active {
		if err := survey.AskOne(&survey.Confirm{Message: "The account is inactive. Reactivate it?", Default: true}, &reactivate); err != nil {
			return err
		}
	}
	cmd := adminapp.UpdateUserCommand{Password: &password}
	if reactivate {
		cmd.Active = &reactivate
	}
	if _, err := users.Update(ctx, "", user.ID, cmd); err != nil {
		return err
	}
	fmt.Printf("Password updated for %s\n", user.Email)
	return nil
}

func askPassword() (string, error) {
	var password, confirm string
	if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(validatePassword)); err != nil {
		return "", err
	}
	if err := survey.AskOne(&survey.Password{Message: "Confirm password:"}, &confirm); err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func exit(err error) {
	if errors.Is(err, terminal.InterruptErr) {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "adminctl: %v\n", err)
	os.Exit(1)
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
