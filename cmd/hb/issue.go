package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	issueRepo     string
	issueAssignee string
	issueTitle    string
)

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.Flags().StringVar(&issueRepo, "repo", "", "Target repository as owner/repo (default: $GITHUB_REPOSITORY)")
	issueCmd.Flags().StringVar(&issueAssignee, "assignee", "", "GitHub login to mention and assign")
	issueCmd.Flags().StringVar(&issueTitle, "title", "Monthly: check handbook data + research streams updates", "Title of the rolling issue")
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Post the monthly data check-in to the rolling issue",
	Long: `Find the rolling maintenance issue by title (creating it when
absent) and post this month's check-in comment. Meant to run from a
scheduled workflow.`,
	RunE: runIssue,
}

func runIssue(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	repoFull := issueRepo
	if repoFull == "" {
		repoFull = os.Getenv("GITHUB_REPOSITORY")
	}
	owner, name, ok := strings.Cut(repoFull, "/")
	if !ok || owner == "" || name == "" {
		exitWithError(ExitConfigError, "no target repository (use --repo or $GITHUB_REPOSITORY)")
	}

	client, cleanup := newGitHubClient(cfg)
	defer cleanup()
	if err := client.RequireToken(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	ctx := cmd.Context()
	issue, err := client.FindOpenIssueByTitle(ctx, owner, name, issueTitle)
	if err != nil {
		return err
	}
	if issue == nil {
		var assignees []string
		if issueAssignee != "" {
			assignees = []string{issueAssignee}
		}
		issue, err = client.CreateIssue(ctx, owner, name, issueTitle, issueBody(repoFull), assignees)
		if err != nil {
			return err
		}
		fmt.Printf("created issue #%d\n", issue.Number)
	}

	if err := client.CommentOnIssue(ctx, owner, name, issue.Number, checkinComment(repoFull)); err != nil {
		return err
	}
	fmt.Printf("posted check-in comment on #%d\n", issue.Number)
	return nil
}

func dataURL(repoFull string) string {
	return fmt.Sprintf("https://github.com/%s/tree/main/data", repoFull)
}

func issueBody(repoFull string) string {
	return fmt.Sprintf(`This is a rolling issue used by the monthly automation.

Each month it posts a comment asking whether:
- anything in %s needs updating, and
- any papers should be added to the research streams page.

Feel free to keep this issue open permanently.`, dataURL(repoFull))
}

func checkinComment(repoFull string) string {
	month := time.Now().UTC().Format("2006-01")

	mention := ""
	if issueAssignee != "" {
		mention = "@" + issueAssignee + " "
	}

	runHint := ""
	if runID := os.Getenv("GITHUB_RUN_ID"); runID != "" {
		runHint = fmt.Sprintf("\n\n_Run: %s (run id: %s)_", repoFull, runID)
	}

	return fmt.Sprintf(`%smonthly check-in (%s):

Could you please confirm whether there is anything to update?

- Handbook data files: %s
- Papers to add or update in the research streams

If yes, please drop notes/links here (or open a PR). Thanks!%s`,
		mention, month, dataURL(repoFull), runHint)
}
