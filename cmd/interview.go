package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/session"
)

const (
	PromptStart = "Start the interview"
	PromptQuit  = "Quit"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive interview in the terminal",
	Run:   runInterview,
}

func init() {
	interviewCmd.Flags().StringP("profile", "p", "", "candidate profile file (yaml or json)")
	interviewCmd.Flags().StringP("focus", "f", "", "optional focus area for the interview")
	interviewCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(interviewCmd)
}

func runInterview(cmd *cobra.Command, _ []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	profilePath, _ := cmd.Flags().GetString("profile")
	focus, _ := cmd.Flags().GetString("focus")

	profile, err := loadProfile(profilePath)
	if err != nil {
		logger.Fatal("loading candidate profile", zap.String("path", profilePath), zap.Error(err))
	}

	ctx := cmd.Context()

	svc, err := newServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing services", zap.Error(err))
	}
	defer svc.Close()

	start := promptui.Select{
		Label: fmt.Sprintf("Interview on %s", strings.Join(profile.Skills, ", ")),
		Items: []string{PromptStart, PromptQuit},
	}
	if _, selected, err := start.Run(); err != nil || selected == PromptQuit {
		return
	}

	created, err := svc.orchestrator.CreateSession(ctx, session.CreateRequest{Profile: profile, Focus: focus})
	if err != nil {
		logger.Fatal("creating a session", zap.Error(err))
	}

	fmt.Printf("Planned questions: %d\n\n", created.PlannedQuestionCount)
	if err := converse(ctx, svc.orchestrator, created.SessionID, created.FirstQuestion); err != nil {
		logger.Fatal("interview failed", zap.String("session_id", created.SessionID), zap.Error(err))
	}
}

// converse runs the question/answer loop until the interview completes or
// the candidate interrupts it.
func converse(ctx context.Context, o *session.Orchestrator, sessionID string, question interview.Question) error {
	for n := 1; ; n++ {
		printQuestion(n, question)

		answerPrompt := promptui.Prompt{
			Label: "Answer",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("answer must not be empty")
				}
				return nil
			},
		}

		answer, err := answerPrompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			fmt.Println("Interview abandoned.")
			return o.AbandonSession(ctx, sessionID)
		}
		if err != nil {
			return err
		}

		turn, err := o.SubmitResponse(ctx, sessionID, answer)
		if err != nil {
			return err
		}

		if turn.Acknowledgment != "" {
			fmt.Printf("\n%s\n", turn.Acknowledgment)
		}
		if turn.IsComplete || turn.NextQuestion == nil {
			return o.CompleteSession(ctx, sessionID)
		}
		question = *turn.NextQuestion
	}
}

func printQuestion(n int, q interview.Question) {
	fmt.Printf("\n[%d] (%s, %s)\n%s\n\n", n, q.Category, q.Difficulty, q.Text)
}

// loadProfile reads a candidate profile. JSON files use the same keys as the
// HTTP API (workExperience); YAML files use the config key style
// (work-experience).
func loadProfile(path string) (interview.Profile, error) {
	var profile interview.Profile

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return profile, err
		}
		if err := json.Unmarshal(data, &profile); err != nil {
			return profile, fmt.Errorf("decoding profile: %w", err)
		}
	} else {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return profile, err
		}
		if err := v.Unmarshal(&profile); err != nil {
			return profile, fmt.Errorf("decoding profile: %w", err)
		}
	}

	if len(profile.Skills) == 0 {
		return profile, errors.New("profile must list at least one skill")
	}

	return profile, nil
}
