package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"leaderboard/internal/account"
	"leaderboard/internal/store"
	"leaderboard/internal/student"
)

type commandLine struct {
	open func(ctx context.Context) (*store.Backend, error)
	out  io.Writer
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Leaderboard maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(cli.migrateCmd(), cli.addUserCmd(), cli.importCmd())
	return root
}

// withBackend opens the configured backend for the duration of fn.
func (cli *commandLine) withBackend(ctx context.Context, fn func(*store.Backend) error) error {
	b, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()
	return fn(b)
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withBackend(cmd.Context(), func(b *store.Backend) error {
				if err := b.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cli.out, "migrated %s backend\n", b.Name)
				return nil
			})
		},
	}
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var email, password, role, studentID string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or replace a login account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			acct, err := account.New(email, password, role, studentID)
			if err != nil {
				return err
			}
			if acct.Role == account.RoleStudent && acct.StudentID == "" {
				return errors.New("student accounts need --student-id")
			}
			return cli.withBackend(cmd.Context(), func(b *store.Backend) error {
				if err := b.Accounts.SaveAccount(cmd.Context(), acct); err != nil {
					return err
				}
				fmt.Fprintf(cli.out, "saved %s account %s\n", acct.Role, acct.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", account.RoleStudent, "student or faculty")
	cmd.Flags().StringVar(&studentID, "student-id", "", "student record linked to a student account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// importDocument is one entry of an export file. It uses the document keys
// of the student collection.
type importDocument struct {
	StudentID       string `json:"student-id"`
	Name            string `json:"student-name"`
	Batch           string `json:"student-batch"`
	Section         string `json:"student-section"`
	Department      string `json:"student-department"`
	Result          any    `json:"student-result"`
	Achievements    string `json:"student-achievements"`
	Cocurricular    string `json:"student-cocurricular"`
	Extracurricular string `json:"student-extracurricular"`
	ProfileLocked   bool   `json:"profileLocked"`
}

func (d importDocument) record() student.Record {
	return student.Record{
		StudentID:       d.StudentID,
		Name:            d.Name,
		Batch:           d.Batch,
		Section:         d.Section,
		Department:      d.Department,
		Result:          student.ParseResult(d.Result),
		Achievements:    d.Achievements,
		Cocurricular:    d.Cocurricular,
		Extracurricular: d.Extracurricular,
		ProfileLocked:   d.ProfileLocked,
	}
}

func (cli *commandLine) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load student documents from a JSON array ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			dec := json.NewDecoder(in)
			dec.UseNumber()
			var docs []importDocument
			if err := dec.Decode(&docs); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			return cli.withBackend(cmd.Context(), func(b *store.Backend) error {
				created := 0
				for _, d := range docs {
					if _, err := b.Students.Create(cmd.Context(), d.record()); err != nil {
						fmt.Fprintf(cli.out, "skip %s: %v\n", d.StudentID, err)
						continue
					}
					created++
				}
				fmt.Fprintf(cli.out, "imported %d of %d students\n", created, len(docs))
				return nil
			})
		},
	}
}
