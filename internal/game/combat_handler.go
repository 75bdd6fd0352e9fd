package game

import (
	"fmt"
	"log/slog"

	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/display"
	"github.com/pixil98/tickmud/internal/storage"
)

// FactionModifiers are the standing changes applied when a character kills
// another. Both values are magnitudes.
type FactionModifiers struct {
	Positive int `json:"positive_modifier"`
	Negative int `json:"negative_modifier"`
}

// DefaultFactionModifiers are used when none are configured.
var DefaultFactionModifiers = FactionModifiers{Positive: 1, Negative: 1}

// Adjust applies the standing change of survivor killing victim: standing with
// the victim's faction drops and standing with each of its enemies rises.
func (m FactionModifiers) Adjust(survivor, victim *Character) {
	if victim.Faction == "" {
		return
	}
	if survivor.Standing == nil {
		survivor.Standing = make(map[string]int)
	}
	survivor.Standing[victim.Faction] -= m.Negative
	for _, enemy := range victim.FactionEnemies {
		if enemy == victim.Faction {
			continue
		}
		survivor.Standing[enemy] += m.Positive
	}
}

// roomCombatHandler turns combat outcomes into room events.
type roomCombatHandler struct {
	room *Room
}

func (h *roomCombatHandler) OnRound(rd combat.Round) {
	text := fmt.Sprintf("%s %s %s.", display.Capitalize(rd.Attacker.CombatName()), rd.Verb, rd.Defender.CombatName())
	if !rd.Hit {
		text = fmt.Sprintf("%s misses %s.", display.Capitalize(rd.Attacker.CombatName()), rd.Defender.CombatName())
	}
	h.room.Publish(CombatRound{
		MessageType: MsgCombatRound,
		Attacker:    rd.Attacker.CombatName(),
		Defender:    rd.Defender.CombatName(),
		Hit:         rd.Hit,
		Damage:      rd.Damage,
		Text:        text,
	})
}

func (h *roomCombatHandler) OnVictory(survivor, victim combat.Combatant) {
	s, ok1 := survivor.(*Character)
	v, ok2 := victim.(*Character)
	if !ok1 || !ok2 {
		slog.Warn("combat victory with unknown combatant type", "room", h.room.ID)
		return
	}

	w := h.room.world()
	if w == nil {
		return
	}
	w.faction.Adjust(s, v)
	s.Send(NewText("You have slain %s.", v.Name))
}

func (h *roomCombatHandler) OnDeath(victim combat.Combatant) {
	v, ok := victim.(*Character)
	if !ok {
		slog.Warn("combat death with unknown combatant type", "room", h.room.ID, "id", victim.CombatID())
		return
	}

	r := h.room
	r.Publish(Death{MessageType: MsgDeath, CharacterID: v.ID, Name: v.Name})
	v.Send(NewText("You have been slain!"))

	v.die()
	r.remove(v)
	v.changeRoomTopic(r, nil)

	if !v.Player {
		r.AddItem(&Item{
			LoadID:      storage.Identifier("corpse-" + v.ID),
			Name:        fmt.Sprintf("the corpse of %s", v.Name),
			Description: fmt.Sprintf("The corpse of %s lies here.", v.Name),
		})
		if w := r.world(); w != nil {
			w.RemoveCharacter(v.ID)
		}
	}
}
