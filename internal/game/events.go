package game

import "fmt"

// Topics used on the message bus.
func RoomTopic(roomID string) string {
	return "room." + roomID
}

func CharacterTopic(charID string) string {
	return "character." + charID
}

// Outbound message types.
const (
	MsgRoomDetails = "RoomDetails"
	MsgCombatRound = "CombatRound"
	MsgSpeech      = "Speech"
	MsgDoorChanged = "DoorChanged"
	MsgDeath       = "Death"
	MsgText        = "Text"
)

type RoomDetails struct {
	MessageType string   `json:"messageType"`
	RoomID      string   `json:"roomId"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Exits       []string `json:"exits"`
	Characters  []string `json:"characters"`
	Inanimates  []string `json:"inanimates"`
}

type CombatRound struct {
	MessageType string `json:"messageType"`
	Attacker    string `json:"attacker"`
	Defender    string `json:"defender"`
	Hit         bool   `json:"hit"`
	Damage      int    `json:"damage"`
	Text        string `json:"text"`
}

type Speech struct {
	MessageType string `json:"messageType"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
}

type DoorChanged struct {
	MessageType string `json:"messageType"`
	Door        string `json:"door"`
	Direction   string `json:"direction"`
	Open        bool   `json:"open"`
}

type Death struct {
	MessageType string `json:"messageType"`
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
}

type Text struct {
	MessageType string `json:"messageType"`
	Text        string `json:"text"`
}

func NewText(format string, args ...any) Text {
	return Text{MessageType: MsgText, Text: fmt.Sprintf(format, args...)}
}
