package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// MemberImport is one entry of a members file.
type MemberImport struct {
	dto.CreateMemberRequest
	Carryover *decimal.Decimal
}

type memberFile struct {
	Members []struct {
		dto.CreateMemberRequest `yaml:",inline"`
		Carryover               string `yaml:"carryover"`
	} `yaml:"members"`
}

// ImportSummary reports what an import did.
type ImportSummary struct {
	Imported []string          `json:"imported"`
	Failed   map[string]string `json:"failed,omitempty"` // name -> error
}

// ParseMemberFile reads a YAML members file. Unknown keys are rejected.
//
//	members:
//	  - name: Alice
//	    kind: person
//	    bonus: true
//	    carryover: "-20.00"
//	  - name: Bank
//	    kind: structure
//	    paymentMethod: true
func ParseMemberFile(r io.Reader) ([]MemberImport, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file memberFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid members file: %w", err)
	}

	out := make([]MemberImport, 0, len(file.Members))
	for i, m := range file.Members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("member #%d has no name", i+1)
		}
		item := MemberImport{CreateMemberRequest: m.CreateMemberRequest}
		if m.Carryover != "" {
			amount, err := decimal.NewFromString(m.Carryover)
			if err != nil {
				return nil, fmt.Errorf("member %q: invalid carryover %q", m.Name, m.Carryover)
			}
			item.Carryover = &amount
		}
		out = append(out, item)
	}
	return out, nil
}

// NewImportMembersCommand creates the import-members command.
func NewImportMembersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-members <file.yaml>",
		Short: "Create members (and their carryovers) from a YAML file",
		Long: `Create every member listed in a YAML file, then set its carryover when one is given.

Members are created one by one; a failure is reported and the import carries on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			members, err := ParseMemberFile(file)
			if err != nil {
				return err
			}

			f := rootOpts.formatter(cmd)
			return rootOpts.withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				summary := ImportSummary{Imported: []string{}, Failed: map[string]string{}}
				for _, m := range members {
					created, err := rt.Services.Member.CreateMember(ctx, m.CreateMemberRequest, rootOpts.Actor)
					if err != nil {
						summary.Failed[m.Name] = err.Error()
						continue
					}
					if m.Carryover != nil {
						if err := rt.Services.Member.SetCarryover(ctx, created.MemberID, *m.Carryover, rootOpts.Actor); err != nil {
							summary.Failed[m.Name] = "created, but carryover failed: " + err.Error()
							continue
						}
					}
					summary.Imported = append(summary.Imported, created.Name)
				}

				if err := f.Success(summary, func(w io.Writer) error {
					fmt.Fprintf(w, "Imported %d member%s\n", len(summary.Imported), plural(len(summary.Imported), "", "s"))
					for name, reason := range summary.Failed {
						fmt.Fprintf(w, "  %s: %s\n", name, reason)
					}
					return nil
				}); err != nil {
					return err
				}
				if len(summary.Failed) > 0 {
					return errors.New("some members were not imported")
				}
				return nil
			})
		},
	}
}
