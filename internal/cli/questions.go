package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/source"
)

// question is the JSON form of a criterion.
type question struct {
	Number      int           `json:"number"`
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Explanation string        `json:"explanation"`
	Needs       []source.Kind `json:"needs"`
}

func toQuestion(s criteria.Spec) question {
	return question{Number: s.Number, ID: s.ID, Title: s.Title, Explanation: s.Explanation, Needs: s.Needs}
}

// questionsCommand creates the questions command.
func (c *CLI) questionsCommand() *cobra.Command {
	var list bool
	reg := criteria.Default()

	cmd := &cobra.Command{
		Use:     "questions [number|id]",
		Aliases: []string{"question"},
		Short:   "List the checklist or describe one question",
		Example: `  wmt questions --list
  wmt questions 13
  wmt questions license --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.New(errors.ErrCodeInvalidInput, "questions takes at most one question")
			}
			if len(args) == 1 && list {
				return errors.New(errors.ErrCodeInvalidInput, "--list cannot be combined with a question")
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var out []string
			for _, s := range reg.All() {
				out = append(out, s.ID+"\t"+s.Title)
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.listQuestions(reg)
			}
			spec, ok := reg.Resolve(args[0])
			if !ok {
				return errors.New(errors.ErrCodeInvalidCriterion, "unknown question %q (use an id or a number from 1 to %d)", args[0], reg.Len())
			}
			return c.describeQuestion(spec)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list the questions")
	return cmd
}

func (c *CLI) listQuestions(reg *criteria.Registry) error {
	specs := reg.All()
	if c.json {
		out := make([]question, len(specs))
		for i, s := range specs {
			out[i] = toQuestion(s)
		}
		return c.encodeJSON(out)
	}

	width := len(strconv.Itoa(len(specs)))
	for _, s := range specs {
		num := StyleNumber.Render(fmt.Sprintf("%*d.", width, s.Number))
		fmt.Fprintf(c.out, "%s %s %s\n", num, s.Title, StyleDim.Render("("+s.ID+")"))
	}
	return nil
}

func (c *CLI) describeQuestion(s criteria.Spec) error {
	if c.json {
		return c.encodeJSON(toQuestion(s))
	}

	needs := make([]string, len(s.Needs))
	for i, k := range s.Needs {
		needs[i] = string(k)
	}
	fmt.Fprintln(c.out, StyleTitle.Render(fmt.Sprintf("%d. %s", s.Number, s.Title)))
	printNewline(c.out)
	printKeyValue(c.out, "ID", s.ID)
	printKeyValue(c.out, "Reads", strings.Join(needs, ", "))
	printNewline(c.out)
	fmt.Fprintln(c.out, s.Explanation)
	return nil
}

func (c *CLI) encodeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
