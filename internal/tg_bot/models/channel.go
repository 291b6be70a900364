package models

import "sort"

// ChannelOption is one destination offered in the channel selection menu.
type ChannelOption struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	ChannelID string `json:"channelID" yaml:"channel_id"` // Chat ID or @username of the destination
	RowNumber int    `json:"rowNumber" yaml:"row"`        // Keyboard row
	Position  int    `json:"position" yaml:"position"`    // Order inside the row
}

// SortChannelOptions orders options by (RowNumber, Position, ID) in place.
func SortChannelOptions(options []ChannelOption) {
	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.RowNumber != b.RowNumber {
			return a.RowNumber < b.RowNumber
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// GroupChannelRows splits already sorted options into keyboard rows.
func GroupChannelRows(options []ChannelOption) [][]ChannelOption {
	var rows [][]ChannelOption
	for i, opt := range options {
		if i == 0 || opt.RowNumber != options[i-1].RowNumber {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], opt)
	}
	return rows
}

// DefaultChannelOptions is the seed used when the option table is empty.
func DefaultChannelOptions() []ChannelOption {
	return []ChannelOption{
		{ID: 1, Name: "Channel A", ChannelID: "channel_a", RowNumber: 1, Position: 0},
		{ID: 2, Name: "Channel B", ChannelID: "channel_b", RowNumber: 1, Position: 1},
		{ID: 3, Name: "Channel C", ChannelID: "channel_c", RowNumber: 1, Position: 2},
		{ID: 4, Name: "Channel D", ChannelID: "channel_d", RowNumber: 2, Position: 0},
		{ID: 5, Name: "Channel E", ChannelID: "channel_e", RowNumber: 2, Position: 1},
		{ID: 6, Name: "Channel F", ChannelID: "channel_f", RowNumber: 2, Position: 2},
	}
}

// MediaConfigID is the fixed identity of the media channel configuration record.
const MediaConfigID = 1

// MediaChannelConfig is the singleton destination for photos and videos.
type MediaChannelConfig struct {
	ChannelID      string `json:"channelID"`      // Empty until an admin sets it
	SpoilerEnabled bool   `json:"spoilerEnabled"` // Applied to every photo/video/video note
}

// DefaultMediaChannelConfig is the value assumed when no record exists yet.
func DefaultMediaChannelConfig() MediaChannelConfig {
	return MediaChannelConfig{SpoilerEnabled: true}
}

// IsConfigured reports whether a destination channel is set.
func (m MediaChannelConfig) IsConfigured() bool {
	return m.ChannelID != ""
}
