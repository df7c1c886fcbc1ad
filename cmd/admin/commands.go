package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"civicreport/backend/internal/auth"
	"civicreport/backend/internal/models"
	"civicreport/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  add-user <username> <role> [email]   create a user
  set-role <user_id> <role>            change a user's role
  add-category <name> [office_id]      create a report category
  categories                           list categories
  token <user_id> [ttl]                issue an access token (default ttl 24h)
  reports <status>                     list reports in a status`

var errUsage = errors.New(usage)

// CLI runs administrative commands against the store.
type CLI struct {
	Storage   storage.Storage
	JWTSecret string
	Out       io.Writer
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add-user":
		return c.addUser(ctx, rest)
	case "set-role":
		return c.setRole(ctx, rest)
	case "add-category":
		return c.addCategory(ctx, rest)
	case "categories":
		return c.listCategories(ctx)
	case "token":
		return c.token(ctx, rest)
	case "reports":
		return c.reports(ctx, rest)
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

func parseRole(s string) (models.Role, error) {
	role := models.Role(strings.ToUpper(s))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func (c *CLI) addUser(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	role, err := parseRole(args[1])
	if err != nil {
		return err
	}
	u := &models.User{Username: args[0], Role: role}
	if len(args) == 3 {
		u.Email = args[2]
	}
	if err := c.Storage.SaveUser(ctx, u); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "User %d (%s) created with role %s.\n", u.ID, u.Username, u.Role)
	return nil
}

func (c *CLI) setRole(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	role, err := parseRole(args[1])
	if err != nil {
		return err
	}
	u, err := c.Storage.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	u.Role = role
	if err := c.Storage.SaveUser(ctx, u); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "User %d is now %s.\n", u.ID, u.Role)
	return nil
}

func (c *CLI) addCategory(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	cat := &models.Category{Name: strings.TrimSpace(args[0])}
	if cat.Name == "" {
		return errors.New("category name must not be empty")
	}
	if len(args) == 2 {
		officeID, err := parseID(args[1])
		if err != nil {
			return err
		}
		cat.OfficeID = &officeID
	}
	if err := c.Storage.SaveCategory(ctx, cat); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Category %d (%s) created.\n", cat.ID, cat.Name)
	return nil
}

func (c *CLI) listCategories(ctx context.Context) error {
	categories, err := c.Storage.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, cat := range categories {
		office := "-"
		if cat.Office != nil {
			office = cat.Office.Name
		}
		fmt.Fprintf(c.Out, "%d\t%s\t%s\n", cat.ID, cat.Name, office)
	}
	return nil
}

func (c *CLI) token(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ttl := 24 * time.Hour
	if len(args) == 2 {
		if ttl, err = time.ParseDuration(args[1]); err != nil || ttl <= 0 {
			return fmt.Errorf("invalid ttl %q", args[1])
		}
	}
	u, err := c.Storage.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	token, err := auth.IssueToken(c.JWTSecret, u.ID, u.Role, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, token)
	return nil
}

func (c *CLI) reports(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	status := models.ReportStatus(strings.ToUpper(args[0]))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", args[0])
	}
	reports, err := c.Storage.ListReportsByStatus(ctx, status)
	if err != nil {
		return err
	}
	for _, r := range reports {
		fmt.Fprintf(c.Out, "%d\t%s\t%s\t%s\n", r.ID, r.Status, r.CreatedAt.Format(time.RFC3339), r.Title)
	}
	return nil
}
