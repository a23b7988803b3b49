package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvago/pkg/config"
	"github.com/xrsl/cvago/pkg/doc"
	clog "github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/schema"
	"github.com/xrsl/cvago/pkg/signal"
	"github.com/xrsl/cvago/pkg/style"
)

var (
	profileJSON     bool
	profileYAML     bool
	profileDraft    bool
	profileOutput   string
	profileRaw      bool
	profileNoEnrich bool
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"p"},
	Short:   "View and edit your profile",
	Long: `View and edit the profile the server adapts résumés from.

Edits go to a local draft (.cvago/draft.json) that starts as a copy of the
saved profile. "cvago profile save" sends the draft and makes it the saved
profile; "cvago profile discard" drops it.

Paths name fields with dots; list positions are numbers:
  experience.0.facts.1.metric
  strategy.targetRoles`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved profile (or the draft with --draft)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var d doc.Node
		if profileDraft {
			var ok bool
			d, ok, err = loadDraft()
			if err == nil && !ok {
				return profile.ErrNoDraft
			}
		} else {
			d, err = newClient(cfg).GetProfile(ctx)
			d = profile.NormalizeMetrics(d)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if profileJSON || profileYAML {
			data, err := encodeDocument(d, profileYAML)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}
		return printProfile(out, d, time.Now())
	},
}

var profileFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the saved profile to a file",
	Long: `Download the saved profile. It is written to --output, else to the
profile_path setting, else to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, err := newClient(cfg).GetProfile(ctx)
		if err != nil {
			return err
		}
		target := profileOutput
		if target == "" {
			target = cfg.ProfilePath
		}
		yamlOut := profileYAML || isYAMLPath(target)
		data, err := encodeDocument(profile.NormalizeMetrics(d), yamlOut)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd.OutOrStdout(), target, data); err != nil {
			return err
		}
		if target != "" && target != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s%s\n", style.Success("Fetched"), target)
		}
		return nil
	},
}

var profileGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print one value of the draft (or the saved profile)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, _, err := currentDocument(ctx, newClient(cfg))
		if err != nil {
			return err
		}
		v, ok := doc.Get(d, doc.ParsePath(args[0]))
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		out := cmd.OutOrStdout()
		if v.IsMap() || v.IsSeq() {
			data, err := doc.MarshalIndentJSON(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\n", data)
			return err
		}
		_, err = fmt.Fprintln(out, v.Text())
		return err
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set one value in the draft",
	Long: `Set one value in the draft.

Known fields are converted the way the editor does it: metrics are parsed
as numbers (anything else clears them), lists split on newlines or commas,
choosing a seniority other than _custom clears the custom value. Other paths
take the value as JSON when it parses, else as text. --raw always stores
the value as JSON.

Examples:
  cvago profile set strategy.seniority senior
  cvago profile set experience.0.facts.1.metric 30
  cvago profile set strategy.targetRoles "Data Engineer, Tech Lead"
  cvago profile set personal.links '{"github":"https://github.com/me"}' --raw`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeProfilePath,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editDraft(cmd, func(d doc.Node) (doc.Node, error) {
			return setValue(schema.MustDefault(), d, doc.ParsePath(args[0]), args[1], profileRaw)
		})
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add <list-path> [value]",
	Short: "Append an item to a list in the draft",
	Long: `Append an item to a list in the draft. Record lists (experience, facts,
capabilities, technologies, education, skills.technical, languages) get an
empty record; string lists need the value.

Examples:
  cvago profile add experience.0.facts
  cvago profile add skills.soft Mentoring`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editDraft(cmd, func(d doc.Node) (doc.Node, error) {
			p := doc.ParsePath(args[0])
			item, ok := schema.MustDefault().NewItemFor(p)
			switch {
			case len(args) == 2 && p.Pattern() == "experience.*.technologies":
				item = profile.NewTechnology(args[1])
			case len(args) == 2:
				item = doc.String(args[1])
			case !ok:
				return d, fmt.Errorf("%s is not a record list; give the value to append", args[0])
			}
			if cur, exists := doc.Get(d, p); exists && !cur.IsSeq() && !cur.IsNull() {
				return d, fmt.Errorf("%s is not a list", args[0])
			}
			return profile.AddItem(d, p, item), nil
		})
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <list-path> <index>",
	Aliases: []string{"rm"},
	Short:   "Remove an item from a list in the draft",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[1])
		if err != nil || i < 0 {
			return fmt.Errorf("index must be a non-negative number, got %q", args[1])
		}
		return editDraft(cmd, func(d doc.Node) (doc.Node, error) {
			p := doc.ParsePath(args[0])
			list, _ := doc.Get(d, p)
			if !list.IsSeq() || i >= list.Len() {
				return d, fmt.Errorf("%s has no item %d", args[0], i)
			}
			return profile.RemoveItem(d, p, i), nil
		})
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the draft in $EDITOR",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editDraft(cmd, func(d doc.Node) (doc.Node, error) {
			return editInEditor(d, profileYAML)
		})
	},
}

var profileParseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Build the draft from a résumé file (.pdf, .docx, .txt)",
	Long: `Upload a résumé and replace the draft with the parsed profile. By default
the server also enriches it; --no-enrich only parses. On failure the draft
is left as it was.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		client := newClient(cfg)
		name := filepath.Base(args[0])
		var parsed doc.Node
		if profileNoEnrich {
			parsed, err = client.Parse(ctx, name, f)
			parsed = profile.NormalizeMetrics(parsed)
		} else {
			store := profile.NewStore()
			if err = newOrchestrator(cfg, client, store).ParseAndEnrich(ctx, name, f); err == nil {
				parsed, _ = store.Draft()
			}
		}
		if err != nil {
			return err
		}
		if err := writeDraft(parsed); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%sdraft built from %s\n", style.Success("Parsed"), name)
		printIssues(cmd.OutOrStdout(), profile.Validate(parsed))
		return nil
	},
}

var profileEnrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Ask the server to enrich the draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		d, err := workingDraft(ctx, client)
		if err != nil {
			return err
		}
		enriched, err := client.Enrich(ctx, profile.ResolveSeniority(d))
		if err != nil {
			return err
		}
		// Keep the sentinel the draft had; the server saw the resolved value.
		if doc.GetText(d, profile.PathSeniority) == profile.SeniorityCustom {
			enriched = doc.Apply(enriched, profile.PathSeniority, doc.String(profile.SeniorityCustom))
			enriched = doc.Apply(enriched, profile.PathSeniorityCustom, doc.String(doc.GetText(d, profile.PathSeniorityCustom)))
		}
		if err := writeDraft(profile.NormalizeMetrics(enriched)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%sdraft updated\n", style.Success("Enriched"))
		return nil
	},
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Send the draft to the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		d, ok, err := loadDraft()
		if err != nil {
			return err
		}
		if !ok {
			return profile.ErrNoDraft
		}
		issues := profile.Validate(d)
		if profile.HasErrors(issues) {
			return issuesError(issues)
		}
		printIssues(cmd.ErrOrStderr(), issues)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := profile.NewStore()
		store.Replace(d)
		if err := newOrchestrator(cfg, newClient(cfg), store).Save(ctx); err != nil {
			return err
		}
		if err := removeDraft(); err != nil {
			clog.Warn("saved, but the draft file could not be removed", "error", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%sprofile stored on %s\n", style.Success("Saved"), cfg.APIURL)
		return nil
	},
}

var profileDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Drop the local draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := removeDraft(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Draft discarded")
		return nil
	},
}

var profileExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the draft (or the saved profile) as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, _, err := currentDocument(ctx, newClient(cfg))
		if err != nil {
			return err
		}
		data, err := encodeDocument(d, profileYAML || isYAMLPath(profileOutput))
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), profileOutput, data)
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the draft with a JSON or YAML file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDocument(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		d = profile.NormalizeMetrics(d)
		issues := profile.Validate(d)
		if profile.HasErrors(issues) {
			return issuesError(issues)
		}
		if err := writeDraft(d); err != nil {
			return err
		}
		printIssues(cmd.ErrOrStderr(), issues)
		fmt.Fprintf(cmd.OutOrStdout(), "%sdraft replaced from %s\n", style.Success("Imported"), args[0])
		return nil
	},
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check the draft, the saved profile or a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.WithInterrupt(cmd.Context())
		defer cancel()

		var d doc.Node
		var err error
		if len(args) == 1 {
			d, err = readDocument(args[0], cmd.InOrStdin())
		} else {
			var cfg *config.Config
			if cfg, err = loadConfig(); err == nil {
				d, _, err = currentDocument(ctx, newClient(cfg))
			}
		}
		if err != nil {
			return err
		}
		issues := profile.Validate(d)
		printIssues(cmd.OutOrStdout(), issues)
		if profile.HasErrors(issues) {
			return issuesError(issues)
		}
		if len(issues) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s no issues\n", style.Good("✓"))
		}
		return nil
	},
}

// editDraft loads the working draft, applies fn and stores the result.
func editDraft(cmd *cobra.Command, fn func(doc.Node) (doc.Node, error)) error {
	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := workingDraft(ctx, newClient(cfg))
	if err != nil {
		return err
	}
	next, err := fn(d)
	if err != nil {
		return err
	}
	if next.Equal(d) {
		fmt.Fprintln(cmd.ErrOrStderr(), style.Muted("No changes"))
		return writeDraft(d)
	}
	return writeDraft(next)
}

// setValue stores raw at p the way the editor would.
func setValue(sch *schema.Schema, d doc.Node, p doc.Path, raw string, asJSON bool) (doc.Node, error) {
	if len(p) == 0 {
		return d, fmt.Errorf("path is empty")
	}
	if err := doc.Reachable(d, p); err != nil {
		return d, err
	}
	if !asJSON {
		if f, b, ok := sch.BindingForPath(p); ok {
			if !sch.Allowed(f, raw) {
				var values []string
				for _, o := range sch.OptionsFor(f) {
					values = append(values, strconv.Quote(o.Value))
				}
				return d, fmt.Errorf("%s must be one of %s", p, strings.Join(values, ", "))
			}
			if f.Immutable {
				clog.Warn("changing a field the adaptation keeps as is", "path", p.String())
			}
			return b.Decompose(d, raw), nil
		}
	}
	v, err := doc.ParseJSON([]byte(raw))
	if err != nil {
		if asJSON {
			return d, fmt.Errorf("--raw value is not JSON: %w", err)
		}
		v = doc.String(raw)
	}
	return doc.Apply(d, p, v), nil
}

func editInEditor(d doc.Node, yamlOut bool) (doc.Node, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	ext := ".json"
	if yamlOut {
		ext = ".yaml"
	}
	tmp, err := os.CreateTemp("", "cvago-draft-*"+ext)
	if err != nil {
		return d, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	data, err := encodeDocument(d, yamlOut)
	if err != nil {
		return d, err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return d, err
	}
	if err := tmp.Close(); err != nil {
		return d, err
	}

	parts := strings.Fields(editor)
	c := exec.Command(parts[0], append(parts[1:], tmp.Name())...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return d, fmt.Errorf("editor %s failed: %w", editor, err)
	}

	edited, err := readDocument(tmp.Name(), nil)
	if err != nil {
		return d, fmt.Errorf("edited profile does not parse, draft unchanged: %w", err)
	}
	edited = profile.NormalizeMetrics(edited)
	if issues := profile.Validate(edited); profile.HasErrors(issues) {
		return d, issuesError(issues)
	}
	return edited, nil
}

func isYAMLPath(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}

// completeProfilePath offers the field paths of the editor schema.
func completeProfilePath(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	sch := schema.MustDefault()
	var out []string
	for _, sec := range sch.Sections {
		for _, f := range sec.Fields {
			p := f.Path
			if sec.Repeated() {
				p = sec.Items + ".0." + f.Path
			}
			if strings.HasPrefix(p, toComplete) {
				out = append(out, p)
			}
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	profileShowCmd.Flags().BoolVar(&profileJSON, "json", false, "Print the document as JSON")
	profileShowCmd.Flags().BoolVar(&profileYAML, "yaml", false, "Print the document as YAML")
	profileShowCmd.Flags().BoolVar(&profileDraft, "draft", false, "Show the local draft")
	profileShowCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	profileFetchCmd.Flags().StringVarP(&profileOutput, "output", "o", "", "Write to this file")
	profileFetchCmd.Flags().BoolVar(&profileYAML, "yaml", false, "Write YAML")

	profileExportCmd.Flags().StringVarP(&profileOutput, "output", "o", "", "Write to this file")
	profileExportCmd.Flags().BoolVar(&profileYAML, "yaml", false, "Write YAML")

	profileEditCmd.Flags().BoolVar(&profileYAML, "yaml", false, "Edit as YAML")
	profileSetCmd.Flags().BoolVar(&profileRaw, "raw", false, "Store the value as JSON without conversion")
	profileParseCmd.Flags().BoolVar(&profileNoEnrich, "no-enrich", false, "Only parse, do not enrich")

	profileCmd.AddCommand(
		profileShowCmd,
		profileFetchCmd,
		profileGetCmd,
		profileSetCmd,
		profileAddCmd,
		profileRemoveCmd,
		profileEditCmd,
		profileParseCmd,
		profileEnrichCmd,
		profileSaveCmd,
		profileDiscardCmd,
		profileExportCmd,
		profileImportCmd,
		profileValidateCmd,
	)
	rootCmd.AddCommand(profileCmd)
}
