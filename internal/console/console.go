// Package console implements the line-oriented learner interface for
// tutoring sessions.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/astramentor/astra/internal/knowledge"
	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/tutor"
	"github.com/astramentor/astra/internal/ui/theme"
)

// Console drives a tutoring session over a terminal. It implements
// tutor.Interaction.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a console over the given streams.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, theme.Prompt.Render(prompt)+" ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ShowPlan presents the study plan for the session.
func (c *Console) ShowPlan(text string) error {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, theme.Title.Render("Study plan"))
	fmt.Fprintln(c.out, theme.Body.Render(text))
	return nil
}

// Explain presents a stage-framed explanation of a point.
func (c *Console) Explain(node knowledge.Point, stage scoring.Stage, text string) error {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, theme.Title.Render(node.Name)+"  "+theme.Subtitle.Render("["+stage.Label()+"]"))
	fmt.Fprintln(c.out, theme.Lesson.Render(text))
	return nil
}

// FollowUp collects the learner's next move in the discussion loop.
func (c *Console) FollowUp() (string, bool, bool, error) {
	fmt.Fprintln(c.out, theme.Hint.Render("Ask a follow-up question, or /quiz to get assessed, /quit to stop."))
	for {
		line, err := c.readLine(">")
		if err != nil {
			// EOF on stdin ends the session cleanly.
			return "", false, true, nil
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "/quiz", "/next":
			return "", true, false, nil
		case "/quit", "/exit":
			return "", false, true, nil
		default:
			return line, false, false, nil
		}
	}
}

// Reply presents the tutor's answer to a follow-up question.
func (c *Console) Reply(text string) error {
	fmt.Fprintln(c.out, theme.Body.Render(text))
	fmt.Fprintln(c.out)
	return nil
}

// Ask presents an assessment question and collects the response.
func (c *Console) Ask(q tutor.Question) (string, bool, error) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, theme.Question.Render(q.Text))
	fmt.Fprintln(c.out, theme.Hint.Render("Type your answer on one line, or /quit to stop."))
	for {
		line, err := c.readLine("answer>")
		if err != nil {
			return "", true, nil
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit":
			return "", true, nil
		default:
			return line, false, nil
		}
	}
}

// AssessmentUnscored tells the learner their response could not be
// graded and a fresh question is coming.
func (c *Console) AssessmentUnscored(node knowledge.Point) error {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, theme.Bad.Render(fmt.Sprintf("That response for %q could not be graded.", node.Name)))
	fmt.Fprintln(c.out, theme.Body.Render("Your progress is unchanged. Here comes a fresh question."))
	return nil
}

// ShowFeedback presents the scored outcome for one assessment.
func (c *Console) ShowFeedback(fb tutor.Feedback) error {
	fmt.Fprintln(c.out)
	if fb.Score >= 0.5 {
		fmt.Fprintf(c.out, "%s  score %.0f%%\n", theme.Good.Render("Well done!"), fb.Score*100)
	} else {
		fmt.Fprintf(c.out, "%s  score %.0f%%\n", theme.Bad.Render("Not quite."), fb.Score*100)
	}
	if fb.Text != "" {
		fmt.Fprintln(c.out, theme.Body.Render(fb.Text))
	}
	if fb.Analysis != "" {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, theme.Subtitle.Render("Answer walkthrough"))
		fmt.Fprintln(c.out, theme.Body.Render(fb.Analysis))
	}
	fmt.Fprintf(c.out, "mastery %s %.2f → %.2f  (%s)\n",
		theme.MasteryBar(fb.Result.ANew, 20), fb.Result.AOld, fb.Result.ANew, fb.Stage.Label())
	if fb.Complete {
		fmt.Fprintln(c.out, theme.Good.Render(fmt.Sprintf("%q completed — unlocking what depends on it.", fb.Node.Name)))
	}
	return nil
}

// NodeStuck tells the learner the retry budget for a point ran out.
func (c *Console) NodeStuck(node knowledge.Point, attempts int) error {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "%s\n", theme.Bad.Render(fmt.Sprintf("%q is not clicking after %d attempts.", node.Name, attempts)))
	fmt.Fprintln(c.out, theme.Body.Render("Your progress is saved. Take a break and run the session again; the tutor will pick up where you left off."))
	return nil
}

// PrintSummary renders the end-of-session report.
func (c *Console) PrintSummary(s *tutor.Summary) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, theme.Title.Render("Session summary"))
	fmt.Fprintf(c.out, "topic:       %s\n", s.Topic)
	fmt.Fprintf(c.out, "duration:    %s\n", s.Duration.Round(time.Second))
	fmt.Fprintf(c.out, "assessments: %d\n", s.Assessments)
	fmt.Fprintf(c.out, "completed:   %d of %d points (%d this session)\n",
		s.Progress.Completed, s.Progress.Total, len(s.NodesCompleted))
	fmt.Fprintf(c.out, "avg mastery: %s %.2f\n", theme.MasteryBar(s.Progress.AverageMastery, 20), s.Progress.AverageMastery)
	if s.Outcome == tutor.OutcomeDone && s.Progress.Completed == s.Progress.Total {
		fmt.Fprintln(c.out, theme.Good.Render("Every knowledge point completed. Goal reached!"))
	}
}
