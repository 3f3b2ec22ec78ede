package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/IBM07/HireWire/internal/observability"
	"github.com/IBM07/HireWire/internal/ranking"
	"github.com/IBM07/HireWire/internal/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored postings ranked by skill match",
	Long: `Run the ranked search directly against the store and print one page of results.
When --skills is omitted and stdin is a terminal, the skills are prompted for.`,
	RunE: runSearch,
}

var (
	searchSkills     string
	searchText       string
	searchLocation   string
	searchRemoteOnly bool
	searchCompany    string
	searchJobType    string
	searchSort       string
	searchPage       int
	searchPerPage    int
	searchMinScore   int
	searchAsJSON     bool
)

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchSkills, "skills", "s", "", "Comma-separated skills you have, e.g. \"go, postgres, docker\"")
	f.StringVar(&searchText, "search", "", "Keyword matched against title and description")
	f.StringVar(&searchLocation, "location", "", "Location substring")
	f.BoolVar(&searchRemoteOnly, "remote-only", false, "Only remote postings")
	f.StringVar(&searchCompany, "company", "", "Company name substring")
	f.StringVar(&searchJobType, "job-type", "", "Exact job type, e.g. Full-time")
	f.StringVar(&searchSort, "sort", string(types.SortMatchDesc), "Sort order: match_desc, date or company")
	f.IntVar(&searchPage, "page", 1, "Page number")
	f.IntVar(&searchPerPage, "per-page", 0, "Results per page (default from config)")
	f.IntVar(&searchMinScore, "min-score", 0, "Minimum match score 0-100")
	f.BoolVar(&searchAsJSON, "output-json", false, "Print the page as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	skillsInput := searchSkills
	if skillsInput == "" && stdinIsTerminal() {
		if skillsInput, err = promptSkills(); err != nil {
			return err
		}
	}

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	perPage := searchPerPage
	if perPage <= 0 {
		perPage = cfg.Search.DefaultPageSize
	}

	criteria := types.FilterCriteria{
		Skills:     skillsInput,
		Search:     searchText,
		Location:   searchLocation,
		RemoteOnly: searchRemoteOnly,
		Company:    searchCompany,
		JobType:    searchJobType,
		Sort:       types.ParseSortMode(searchSort),
		Page:       searchPage,
		PageSize:   perPage,
		MinScore:   searchMinScore,
	}

	pipeline := ranking.NewPipeline(store,
		ranking.WithMaxPageSize(cfg.Search.MaxPageSize),
		ranking.WithLogger(logger.Named("ranking")))

	page, err := pipeline.Run(cmd.Context(), criteria)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchAsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintPage(page)
	return nil
}

// promptSkills asks for the skill list interactively. An empty answer is
// allowed and ranks every posting at 0%.
func promptSkills() (string, error) {
	prompt := promptui.Prompt{
		Label: "Your skills (comma-separated)",
		Validate: func(input string) error {
			if len(input) > 1000 {
				return errors.New("too long")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("skills prompt: %w", err)
	}
	return strings.TrimSpace(result), nil
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
