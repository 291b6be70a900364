package repository

import (
	"fmt"
	"os"

	"github.com/DenisKhanov/RelayBOT/internal/tg_bot/models"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a channel seed file:
//
//	channels:
//	  - id: 1
//	    name: News
//	    channel_id: "-1001234567890"
//	    row: 1
//	    position: 0
type seedFile struct {
	Channels []models.ChannelOption `yaml:"channels"`
}

// LoadChannelSeed returns the channel options to seed an empty store with.
// An empty path yields the built-in defaults.
func LoadChannelSeed(path string) ([]models.ChannelOption, error) {
	if path == "" {
		return models.DefaultChannelOptions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel seed %s: %w", path, err)
	}

	var seed seedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse channel seed %s: %w", path, err)
	}
	if len(seed.Channels) == 0 {
		return nil, fmt.Errorf("channel seed %s has no channels", path)
	}

	seen := make(map[int64]struct{}, len(seed.Channels))
	for i, opt := range seed.Channels {
		if opt.ID == 0 {
			seed.Channels[i].ID = int64(i + 1)
		}
		if opt.Name == "" || opt.ChannelID == "" {
			return nil, fmt.Errorf("channel seed %s: entry %d needs name and channel_id", path, i+1)
		}
		if _, dup := seen[seed.Channels[i].ID]; dup {
			return nil, fmt.Errorf("channel seed %s: duplicate id %d", path, seed.Channels[i].ID)
		}
		seen[seed.Channels[i].ID] = struct{}{}
	}
	models.SortChannelOptions(seed.Channels)
	return seed.Channels, nil
}
