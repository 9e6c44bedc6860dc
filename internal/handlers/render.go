package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/models"
	"github.com/parlorgames/parlor/internal/notifier"
)

// renderEvent turns one engine event into MarkdownV2 text plus an
// optional inline keyboard. An empty string means nothing is sent for
// this event kind.
func renderEvent(ev game.Event) (string, *notifier.InlineKeyboard) {
	actor := md(ev.ActorName)
	target := md(ev.TargetName)

	switch ev.Kind {
	case game.EventPlayerJoined:
		return fmt.Sprintf("*%s* joined \\(%d of %d seats\\)", actor, payInt(ev.Payload, "seated"), payInt(ev.Payload, "capacity")), nil
	case game.EventPlayerLeft:
		return fmt.Sprintf("*%s* left the session", actor), nil
	case game.EventSessionStart:
		return "The session begins", nil
	case game.EventSessionEnd:
		return renderOutcome(ev), nil
	case game.EventTurnStart:
		return fmt.Sprintf("It is *%s*'s turn", actor), nil

	case game.EventHandDealt:
		return fmt.Sprintf("Your card: *%s*", tokenName(ev.Token)), nil
	case game.EventTokenDrawn:
		return fmt.Sprintf("You hold *%s*", tokenName(ev.Token)), nil
	case game.EventRoleDealt:
		return renderRole(ev), nil
	case game.EventHandRevealed:
		if ev.Token != nil {
			return fmt.Sprintf("*%s* holds *%s*", target, tokenName(ev.Token)), nil
		}
		return fmt.Sprintf("*%s* looks at *%s*'s hand", actor, target), nil

	case game.EventPlayPrompt:
		return "Pick a card to play", rankKeyboard("play", intSlice(ev.Payload["ranks"]), false)
	case game.EventGuessPrompt:
		return "Name the rank you suspect", rankKeyboard("guess", intSlice(ev.Payload["ranks"]), true)
	case game.EventTargetPrompt:
		return renderTargetPrompt(ev)
	case game.EventBallotPrompt:
		return fmt.Sprintf("Vote on *%s* as partner", target), &notifier.InlineKeyboard{Rows: [][]notifier.InlineButton{{
			{Text: "Yes", CallbackData: "vote:yes"},
			{Text: "No", CallbackData: "vote:no"},
		}}}
	case game.EventAgendaPrompt:
		return renderAgendaPrompt(ev)

	case game.EventCardPlayed:
		return fmt.Sprintf("*%s* plays *%s*", actor, tokenName(ev.Token)), nil
	case game.EventGuessResolved:
		verdict := "wrong"
		if payBool(ev.Payload, "correct") {
			verdict = "right"
		}
		return fmt.Sprintf("*%s* suspects *%s* holds *%s* and is %s", actor, target, md(rankName(ev.Rank)), verdict), nil
	case game.EventHandsCompared:
		if loser, _ := ev.Payload["loser"].(string); loser != "" {
			name := actor
			if loser == ev.Target {
				name = target
			}
			return fmt.Sprintf("*%s* and *%s* compare hands and *%s* loses", actor, target, name), nil
		}
		return fmt.Sprintf("*%s* and *%s* compare hands to no effect", actor, target), nil
	case game.EventShieldRaised:
		return fmt.Sprintf("*%s* is protected until their next turn", actor), nil
	case game.EventDiscardForced:
		return fmt.Sprintf("*%s* discards *%s*", target, tokenName(ev.Token)), nil
	case game.EventHandsSwapped:
		return fmt.Sprintf("*%s* and *%s* swap hands", actor, target), nil
	case game.EventTurnPassed:
		return fmt.Sprintf("*%s* passes", actor), nil
	case game.EventPlayerEliminated:
		return fmt.Sprintf("*%s* is out of the round", target), nil
	case game.EventShowdown:
		return "The stock is empty and all hands are revealed", nil

	case game.EventPartnerNominated:
		return fmt.Sprintf("*%s* nominates *%s* as partner", actor, target), nil
	case game.EventBallotRecorded:
		return fmt.Sprintf("*%s* cast a ballot", actor), nil
	case game.EventBallotResult:
		yes, no := payInt(ev.Payload, "yes"), payInt(ev.Payload, "no")
		if payBool(ev.Payload, "approved") {
			return fmt.Sprintf("The ballot passes %d to %d", yes, no), nil
		}
		return fmt.Sprintf("The ballot fails %d to %d", yes, no), nil
	case game.EventAgendaForwarded:
		return fmt.Sprintf("*%s* forwards the agenda to *%s*", actor, target), nil
	case game.EventPolicyEnacted:
		cat, _ := ev.Payload["category"].(string)
		return fmt.Sprintf("*%s* enacts a %s policy \\(%d favorable, %d unfavorable\\)",
			actor, md(cat), payInt(ev.Payload, "favorable"), payInt(ev.Payload, "unfavorable")), nil
	case game.EventStockReshuffled:
		return "The policy stock is reshuffled", nil
	}
	return "", nil
}

func renderOutcome(ev game.Event) string {
	switch reason, _ := ev.Payload["reason"].(string); reason {
	case game.ReasonAborted:
		return "The session was aborted"
	case game.ReasonFavorableThreshold:
		return "Five favorable policies are enacted: the citizens win"
	case game.ReasonUnfavorableThreshold:
		return "Six unfavorable policies are enacted: the agitators win"
	case game.ReasonAgitatorElected:
		return fmt.Sprintf("The agitator *%s* was elected partner: the agitators win", md(ev.TargetName))
	default:
		return fmt.Sprintf("*%s* wins the session", md(ev.TargetName))
	}
}

func renderRole(ev game.Event) string {
	role, _ := ev.Payload["role"].(string)
	text := fmt.Sprintf("Your role: *%s*", md(role))
	for _, ally := range pairSlice(ev.Payload["allies"]) {
		text += fmt.Sprintf("\n*%s* is a %s", md(ally["name"]), md(ally["role"]))
	}
	return text
}

func renderTargetPrompt(ev game.Event) (string, *notifier.InlineKeyboard) {
	purpose, _ := ev.Payload["purpose"].(string)
	prefix, text, withPass := "target", "Pick a target", true
	if purpose == "nominate" {
		prefix, text, withPass = "nominate", "Nominate a partner", false
	}
	var rows [][]notifier.InlineButton
	for _, t := range pairSlice(ev.Payload["targets"]) {
		rows = append(rows, []notifier.InlineButton{{
			Text:         t["name"],
			CallbackData: prefix + ":" + t["id"],
		}})
	}
	if withPass {
		rows = append(rows, []notifier.InlineButton{{Text: "Pass", CallbackData: "pass"}})
	}
	return text, &notifier.InlineKeyboard{Rows: rows}
}

func renderAgendaPrompt(ev game.Event) (string, *notifier.InlineKeyboard) {
	cats := stringSlice(ev.Payload["agenda"])
	text := "Discard one policy"
	if len(cats) == 2 {
		text = "Enact one policy"
	}
	var rows [][]notifier.InlineButton
	for i, c := range cats {
		rows = append(rows, []notifier.InlineButton{{
			Text:         c,
			CallbackData: "agenda:" + strconv.Itoa(i),
		}})
	}
	return text, &notifier.InlineKeyboard{Rows: rows}
}

// renderSnapshot formats the /status view.
func renderSnapshot(snap *game.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* session, %s\n", md(string(snap.Variant)), md(snap.Phase))
	if snap.Variant == game.VariantCouncil {
		fmt.Fprintf(&b, "Policies: %d favorable, %d unfavorable\n", snap.Favorable, snap.Unfavorable)
	}
	fmt.Fprintf(&b, "Stock: %d\n", snap.StockSize)
	for _, seat := range snap.Seats {
		marker := ""
		if seat.ID == snap.ActiveID {
			marker = " \\<"
		}
		fmt.Fprintf(&b, "*%s* %s%s\n", md(seat.Name), md(seat.Status), marker)
		if len(seat.Pile) > 0 {
			fmt.Fprintf(&b, "  pile: %s\n", md(strings.Join(seat.Pile, ", ")))
		}
	}
	if snap.PendingFor {
		b.WriteString("A choice is waiting on you\n")
	}
	return b.String()
}

func rankKeyboard(prefix string, ranks []int, withPass bool) *notifier.InlineKeyboard {
	var rows [][]notifier.InlineButton
	for _, r := range ranks {
		rows = append(rows, []notifier.InlineButton{{
			Text:         fmt.Sprintf("%s (%d)", rankName(r), r),
			CallbackData: prefix + ":" + strconv.Itoa(r),
		}})
	}
	if withPass {
		rows = append(rows, []notifier.InlineButton{{Text: "Pass", CallbackData: "pass"}})
	}
	return &notifier.InlineKeyboard{Rows: rows}
}

func rankName(rank int) string {
	return models.DeductionToken(rank).Name
}

func tokenName(t *models.Token) string {
	if t == nil {
		return ""
	}
	return md(t.Name)
}

// md escapes MarkdownV2 reserved characters in dynamic text.
func md(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`_*[]()~`+"`"+`>#+-=|{}.!\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func payInt(p map[string]interface{}, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func payBool(p map[string]interface{}, key string) bool {
	v, _ := p[key].(bool)
	return v
}

func intSlice(v interface{}) []int {
	switch vals := v.(type) {
	case []int:
		return vals
	case []interface{}:
		out := make([]int, 0, len(vals))
		for _, x := range vals {
			if f, ok := x.(float64); ok {
				out = append(out, int(f))
			}
		}
		return out
	}
	return nil
}

func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func pairSlice(v interface{}) []map[string]string {
	switch vals := v.(type) {
	case []map[string]string:
		return vals
	case []interface{}:
		var out []map[string]string
		for _, x := range vals {
			if m, ok := x.(map[string]interface{}); ok {
				pair := make(map[string]string, len(m))
				for k, mv := range m {
					if s, ok := mv.(string); ok {
						pair[k] = s
					}
				}
				out = append(out, pair)
			}
		}
		return out
	}
	return nil
}
