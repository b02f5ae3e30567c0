package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/courtside/tracker/internal/export"
	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/tracker"
	"github.com/courtside/tracker/internal/workflow"
)

// console is the interactive tracking REPL. One line per action; prompts for
// disambiguation answers inline after each recorded event.
type console struct {
	trk      *tracker.Tracker
	opponent string
	in       *bufio.Scanner
}

func newConsole(trk *tracker.Tracker, opponent string) *console {
	return &console{
		trk:      trk,
		opponent: opponent,
		in:       bufio.NewScanner(os.Stdin),
	}
}

func (c *console) run(ctx context.Context) {
	fmt.Println("Courtside tracking console. Type 'help' for commands, 'quit' to exit.")
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Print("> ")
		if !c.in.Scan() {
			return
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		c.answerPrompts()
	}
}

// eventCommands maps console shorthands to event types.
var eventCommands = map[string]game.EventType{
	"2":      game.EventFGMade,
	"miss2":  game.EventFGMissed,
	"3":      game.EventThreeMade,
	"miss3":  game.EventThreeMissed,
	"ft":     game.EventFTMade,
	"missft": game.EventFTMissed,
	"to":     game.EventTurnover,
	"stl":    game.EventSteal,
	"blk":    game.EventBlock,
	"foul":   game.EventFoul,
	"chg":    game.EventChargeTaken,
	"defl":   game.EventDeflection,
}

func (c *console) execute(ctx context.Context, cmd string, args []string) error {
	if eventType, ok := eventCommands[cmd]; ok {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <player|#jersey>", cmd)
		}
		id, err := c.trk.RecordEvent(eventType, parseActor(args[0]), 0, nil)
		if err != nil {
			return err
		}
		fmt.Printf("recorded %s (%s)\n", eventType, id)
		return nil
	}

	switch cmd {
	case "help":
		printConsoleHelp()
	case "lock":
		if len(args) != game.RosterSize {
			return fmt.Errorf("usage: lock <p1> <p2> <p3> <p4> <p5>")
		}
		return c.trk.LockStartingFive(args)
	case "oppfive":
		c.trk.SetOpponentStartingFive(args)
	case "start":
		return c.trk.StartClock()
	case "stop":
		c.trk.StopClock()
	case "quarter":
		return c.trk.AdvanceQuarter()
	case "sub":
		if len(args) != 2 {
			return fmt.Errorf("usage: sub <out> <in>")
		}
		return c.trk.SubstitutePlayers(args[0], args[1])
	case "timeout":
		side := game.SideHome
		if len(args) > 0 && (args[0] == "opp" || args[0] == "opponent") {
			side = game.SideOpponent
		}
		return c.trk.Timeout(side)
	case "del":
		if len(args) != 1 {
			return fmt.Errorf("usage: del <eventID>")
		}
		return c.trk.DeleteEvent(args[0])
	case "restore":
		return c.trk.UndoLastDeletedEvent()
	case "undo":
		return c.trk.UndoLastAction()
	case "box":
		c.printBoxScore()
	case "events":
		c.printEvents()
	case "checkpoint":
		return c.trk.Checkpoint(ctx)
	case "end":
		if err := c.trk.EndSession(ctx); err != nil {
			return err
		}
		fmt.Println("Session ended.")
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return nil
}

// answerPrompts drains the disambiguation workflow left by the last command.
func (c *console) answerPrompts() {
	for {
		step := c.trk.PendingStep()
		if step == workflow.StepDone {
			return
		}

		var err error
		switch step {
		case workflow.StepPaint:
			err = c.trk.ResolvePaint(c.askYesNo("In the paint?"))
		case workflow.StepAssist:
			err = c.trk.ResolveAssist(c.askActor("Assisted by (player, or 'none'):"))
		case workflow.StepRebounder:
			err = c.trk.ResolveRebounder(c.askActor("Rebounded by (player/#jersey, or 'none'):"))
		case workflow.StepStealCredit:
			err = c.trk.ResolveStealCredit(c.askActor("Stolen by (player/#jersey, or 'none'):"))
		case workflow.StepStealVictim:
			err = c.trk.ResolveStealVictim(c.askActor("Stolen from (player/#jersey, or 'none'):"))
		case workflow.StepFoulType:
			err = c.trk.ResolveFoulType(c.askYesNo("Offensive foul?"))
		case workflow.StepBlockedShooter:
			err = c.trk.ResolveBlockedShooter(c.askActor("Shot by (player/#jersey, or 'none'):"))
		default:
			c.trk.CancelPrompt()
			return
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
			c.trk.CancelPrompt()
			return
		}
	}
}

func (c *console) askYesNo(prompt string) bool {
	for {
		fmt.Printf("%s [y/n] ", prompt)
		if !c.in.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

func (c *console) askActor(prompt string) *game.Actor {
	fmt.Printf("%s ", prompt)
	if !c.in.Scan() {
		return nil
	}
	answer := strings.TrimSpace(c.in.Text())
	if answer == "" || answer == "none" {
		return nil
	}
	actor := parseActor(answer)
	return &actor
}

// parseActor interprets "#12" as an opponent jersey and anything else as a
// rostered player id.
func parseActor(token string) game.Actor {
	if strings.HasPrefix(token, "#") {
		return game.OpponentJersey(strings.TrimPrefix(token, "#"))
	}
	return game.HomePlayer(token)
}

func (c *console) printBoxScore() {
	report := export.BuildReport(c.trk.BoxScore(), c.trk.ChronologicalEvents(), "Home", c.opponent, c.trk.GameState())
	exporter := export.NewExporter(export.Options{Format: export.FormatText, Writer: os.Stdout})
	if err := exporter.Export(report); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (c *console) printEvents() {
	evs := c.trk.Events()
	if len(evs) == 0 {
		fmt.Println("no events recorded")
		return
	}
	limit := 15
	if len(evs) < limit {
		limit = len(evs)
	}
	for _, e := range evs[:limit] {
		marker := ""
		if e.Deleted {
			marker = " [deleted]"
		}
		fmt.Printf("%s  Q%d %-18s %s%s\n", e.ID[:8], e.Quarter, e.Type, e.Actor, marker)
	}
}

func printConsoleHelp() {
	fmt.Println("Game setup:   lock <5 ids> | oppfive <jerseys> | start | stop | quarter")
	fmt.Println("Scoring:      2|3|ft <player or #jersey> , miss2|miss3|missft <...>")
	fmt.Println("Other stats:  to|stl|blk|foul|chg|defl <player or #jersey>")
	fmt.Println("Game flow:    sub <out> <in> | timeout [opp]")
	fmt.Println("Corrections:  del <eventID> | restore | undo")
	fmt.Println("Review:       box | events")
	fmt.Println("Session:      checkpoint | end | quit")
}
