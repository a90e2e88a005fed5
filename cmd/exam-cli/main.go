package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bootstrap"
	"github.com/pablogaravito/psm1-exam-simulator/internal/config"
	"github.com/pablogaravito/psm1-exam-simulator/internal/exam"
	"github.com/pablogaravito/psm1-exam-simulator/internal/logger"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
	"github.com/pablogaravito/psm1-exam-simulator/internal/validator"
	"github.com/rs/zerolog"
)

const helpText = `Commands:
  1..9      select / toggle option
  n, p      next / previous question
  g N       go to question N
  f         flag / unflag current question
  m         show question map
  s         submit (asks to confirm if questions are unanswered)
  r         review answers (after submit)
  h         this help
  q         quit
`

func main() {
	var cfgFlags model.ExamConfig
	var difficulty string
	flag.IntVar(&cfgFlags.QuestionCount, "count", 0, "Number of questions (prompted if 0)")
	flag.IntVar(&cfgFlags.TimeLimitMinutes, "minutes", -1, "Time limit in minutes, 0 for untimed (prompted if negative)")
	flag.StringVar(&difficulty, "difficulty", "", "all, easy, medium, hard or mixed (prompted if empty)")
	flag.Parse()
	cfgFlags.Difficulty = model.DifficultyFilter(strings.ToLower(difficulty))

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// Log lines go to stderr so they never interleave with the exam screen.
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bankService, closeBank, err := bootstrap.BankService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure question bank")
	}
	defer closeBank()

	if err := bankService.Prewarm(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error loading questions. Please check that the question bank is available and valid.")
		log.Fatal().Err(err).Msg("Bank load failed")
	}

	con, err := openConsole()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open terminal")
	}
	defer con.Close()

	examService := service.NewExamService(bankService, log, service.WithTickInterval(cfg.TickInterval))
	defer examService.Shutdown()

	if err := run(ctx, con, examService, cfgFlags, log); err != nil && !errors.Is(err, errQuit) {
		con.Close()
		log.Fatal().Err(err).Msg("Exam aborted")
	}
}

var errQuit = errors.New("quit")

func run(ctx context.Context, con *console, svc *service.ExamService, preset model.ExamConfig, log zerolog.Logger) error {
	con.Printf("=== PSM I Exam Simulator ===\n\n")

	cfg, err := askConfig(con, preset)
	if err != nil {
		return err
	}

	res, err := svc.Start(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start exam: %w", err)
	}
	if res.Message != "" {
		con.Printf("%s\n", res.Message)
	}

	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()
	go pumpEvents(con, events)

	render(con, res.State)
	for {
		line, err := con.Prompt("> ")
		if err != nil {
			return errQuit
		}
		if line == "" {
			continue
		}

		st, err := dispatch(con, svc, line)
		switch {
		case errors.Is(err, errQuit):
			return errQuit
		case err != nil:
			con.Printf("! %s\n", errorMessage(err))
			log.Debug().Err(err).Str("command", line).Msg("Command rejected")
		case st != nil:
			render(con, st)
		}
	}
}

// askConfig fills in whatever the flags left unset.
func askConfig(con *console, cfg model.ExamConfig) (model.ExamConfig, error) {
	for {
		if cfg.QuestionCount <= 0 {
			n, err := askInt(con, "Number of questions: ")
			if err != nil {
				return cfg, err
			}
			cfg.QuestionCount = n
		}
		if cfg.TimeLimitMinutes < 0 {
			n, err := askInt(con, "Time limit in minutes (0 = untimed): ")
			if err != nil {
				return cfg, err
			}
			cfg.TimeLimitMinutes = n
		}
		if cfg.Difficulty == "" {
			d, err := con.Prompt("Difficulty [all/easy/medium/hard/mixed]: ")
			if err != nil {
				return cfg, errQuit
			}
			cfg.Difficulty = model.DifficultyFilter(strings.ToLower(d))
		}

		fields := validator.Struct(&cfg)
		if fields == nil {
			return cfg, nil
		}
		for field, msg := range fields {
			con.Printf("! %s: %s\n", field, msg)
			switch field {
			case "question_count":
				cfg.QuestionCount = 0
			case "time_limit_minutes":
				cfg.TimeLimitMinutes = -1
			case "difficulty":
				cfg.Difficulty = ""
			}
		}
	}
}

func askInt(con *console, prompt string) (int, error) {
	for {
		s, err := con.Prompt(prompt)
		if err != nil {
			return 0, errQuit
		}
		n, err := strconv.Atoi(s)
		if err == nil {
			return n, nil
		}
		con.Printf("! please enter a number\n")
	}
}

func dispatch(con *console, svc *service.ExamService, line string) (*service.ExamState, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	if n, err := strconv.Atoi(cmd); err == nil {
		st, err := svc.State()
		if err != nil {
			return nil, err
		}
		return svc.SelectOption(st.Progress.Position-1, n-1)
	}

	switch strings.ToLower(cmd) {
	case "n":
		return svc.Navigate(model.NavigateRequest{Action: model.NavigateNext})
	case "p":
		return svc.Navigate(model.NavigateRequest{Action: model.NavigatePrevious})
	case "g":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", exam.ErrIndexOutOfRange, arg)
		}
		idx := n - 1
		return svc.Navigate(model.NavigateRequest{Action: model.NavigateGoTo, Index: &idx})
	case "f":
		st, err := svc.State()
		if err != nil {
			return nil, err
		}
		return svc.ToggleFlag(st.Progress.Position - 1)
	case "m":
		st, err := svc.State()
		if err != nil {
			return nil, err
		}
		renderMap(con, st)
		return nil, nil
	case "s":
		return submit(con, svc)
	case "r":
		return svc.Review()
	case "h", "?":
		con.Printf("%s", helpText)
		return nil, nil
	case "q":
		return nil, errQuit
	}
	con.Printf("! unknown command %q, type h for help\n", cmd)
	return nil, nil
}

func submit(con *console, svc *service.ExamService) (*service.ExamState, error) {
	res, err := svc.Submit(false)
	if err != nil {
		return nil, err
	}
	if res.AlreadySubmitted {
		renderSummary(con, res.Summary)
		return nil, nil
	}
	if res.ConfirmationRequired {
		answer, err := con.Prompt(fmt.Sprintf("You have %d unanswered question(s). Submit anyway? [y/N] ", res.Unanswered))
		if err != nil {
			return nil, errQuit
		}
		if !strings.EqualFold(answer, "y") {
			return res.State, nil
		}
		if _, err := svc.Submit(true); err != nil {
			return nil, err
		}
	}
	// The summary itself is printed by the event pump.
	return nil, nil
}

func pumpEvents(con *console, events <-chan service.Event) {
	for ev := range events {
		switch ev.Type {
		case service.EventTick:
			if ev.Tick == nil {
				continue
			}
			switch ev.Tick.Crossed {
			case exam.TimerWarning:
				con.Printf("\n*** 10 minutes remaining ***\n")
			case exam.TimerCritical:
				con.Printf("\n*** 5 minutes remaining ***\n")
			}
		case service.EventAutoSubmitted:
			con.Printf("\n*** Time is up! Your exam has been submitted. ***\n")
			renderSummary(con, ev.Summary)
		case service.EventSubmitted:
			renderSummary(con, ev.Summary)
		}
	}
}

// ─── Rendering ──────────────────────────────────────────────────────────────

func render(con *console, st *service.ExamState) {
	if st == nil || st.Question == nil {
		return
	}
	q := st.Question
	p := st.Progress

	var b strings.Builder
	fmt.Fprintf(&b, "\n── Question %s [%s]", p.Label, q.Difficulty)
	if p.Timed {
		fmt.Fprintf(&b, "  ⏱ %s", p.Clock)
		if p.TimerLevel != exam.TimerNormal {
			fmt.Fprintf(&b, " (%s)", p.TimerLevel)
		}
	}
	if q.Flagged {
		b.WriteString("  ⚑ flagged")
	}
	fmt.Fprintf(&b, "  answered %d/%d ──\n%s\n", p.Answered, p.Total, q.Text)
	if q.InputType == "checkbox" {
		b.WriteString("(select all that apply)\n")
	}

	for _, o := range q.Options {
		mark := "( )"
		switch {
		case q.InputType == "checkbox" && o.Selected:
			mark = "[x]"
		case q.InputType == "checkbox":
			mark = "[ ]"
		case o.Selected:
			mark = "(•)"
		}
		status := ""
		switch o.Status {
		case exam.OptionCorrect:
			status = "  ✔"
		case exam.OptionIncorrect:
			status = "  ✘"
		case exam.OptionMissed:
			status = "  ← correct answer"
		}
		fmt.Fprintf(&b, "  %s %d. %s%s\n", mark, o.Index+1, o.Text, status)
	}
	if q.Controls.CanSubmit {
		b.WriteString("Last question: type s to submit.\n")
	}
	con.Printf("%s", b.String())
}

func renderMap(con *console, st *service.ExamState) {
	var b strings.Builder
	for i, item := range st.Navigation {
		sym := "·"
		switch item.Status {
		case exam.NavCurrent:
			sym = ">"
		case exam.NavCorrectAnswer:
			sym = "✔"
		case exam.NavWrong:
			sym = "✘"
		case exam.NavFlagged:
			sym = "⚑"
		case exam.NavAnswered:
			sym = "●"
		}
		fmt.Fprintf(&b, "%3d%s ", item.Number, sym)
		if (i+1)%10 == 0 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	con.Printf("%s", b.String())
}

func renderSummary(con *console, s *exam.Summary) {
	if s == nil {
		return
	}
	verdict := "FAILED"
	if s.Passed {
		verdict = "PASSED"
	}
	con.Printf("\n=== Results ===\n"+
		"Correct:    %d\n"+
		"Incorrect:  %d\n"+
		"Score:      %.1f%%\n"+
		"Time spent: %s\n"+
		"Result:     %s (pass mark %.0f%%)\n"+
		"Type r to review your answers, q to quit.\n",
		s.CorrectCount, s.IncorrectCount, s.Percentage, s.TimeSpent, verdict, exam.PassPercentage)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, exam.ErrIndexOutOfRange):
		return "no such question or option"
	case errors.Is(err, service.ErrNotSubmitted):
		return "submit the exam first"
	case errors.Is(err, service.ErrNoActiveExam):
		return "no exam in progress"
	}
	return err.Error()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
