package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zachkp/termfolio/internal/contact"
)

var contactEndpoint string

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message through the portfolio's contact endpoint",
	Long: `Prompts for name, email and message, checks them with the same rules as
the web form, and posts them once to the contact endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		endpoint := cfg.Contact.Endpoint
		if contactEndpoint != "" {
			endpoint = contactEndpoint
		}

		var p contact.Payload
		if err := newContactForm(&p).Run(); err != nil {
			return err
		}

		resp, err := contact.NewClient(endpoint).Submit(cmd.Context(), p)
		if err != nil {
			n := contact.NotifyFailure(err)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", n.Title, n.Text)
			return err
		}
		n := contact.NotifySuccess(resp.Message)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", n.Title, n.Text)
		return nil
	},
}

func init() {
	contactCmd.Flags().StringVar(&contactEndpoint, "endpoint", "", "contact endpoint URL, overrides config")
	rootCmd.AddCommand(contactCmd)
}

func newContactForm(p *contact.Payload) *huh.Form {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("min. 2 characters").
				Value(&p.Name).
				Validate(validateField(contact.FieldName)),
			huh.NewInput().
				Title("Email").
				Value(&p.Email).
				Validate(validateField(contact.FieldEmail)),
			huh.NewText().
				Title("Message").
				Description("min. 10 characters").
				Value(&p.Message).
				Validate(validateField(contact.FieldMessage)),
		),
	).WithTheme(huh.ThemeDracula())
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

// validateField checks one input with contact.Validate by filling the other
// fields with values that always pass.
func validateField(field string) func(string) error {
	return func(v string) error {
		p := contact.Payload{Name: "ok", Email: "ok@example.com", Message: "long enough message"}
		switch field {
		case contact.FieldName:
			p.Name = v
		case contact.FieldEmail:
			p.Email = v
		case contact.FieldMessage:
			p.Message = v
		}
		var ve *contact.ValidationError
		if err := contact.Validate(p); errors.As(err, &ve) {
			return errors.New(ve.Message)
		}
		return nil
	}
}
