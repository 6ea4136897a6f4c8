package idutil

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DiscordEpoch is the first millisecond of 2015, the epoch of Discord ids.
const DiscordEpoch int64 = 1420070400000

func init() {
	snowflake.Epoch = DiscordEpoch
}

// Timestamp returns the creation time encoded in a Discord snowflake id.
func Timestamp(id string) (time.Time, error) {
	sID, err := snowflake.ParseString(id)
	if err != nil {
		return time.Time{}, err
	}

	return time.UnixMilli(sID.Time()), nil
}

// IsSnowflake reports whether id is a well-formed Discord snowflake.
func IsSnowflake(id string) bool {
	sID, err := snowflake.ParseString(id)
	return err == nil && sID > 0
}
