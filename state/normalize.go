package state

import "msgsync/models"

// Normalize returns the canonical in-memory form of server records.
//
// Every record without a details flag gets false. Existing flags and all
// server-owned fields are kept as-is. The input slice is never modified.
func Normalize(records []models.Message) []models.Message {
	out := make([]models.Message, 0, len(records))
	for _, record := range records {
		msg := record.Clone()
		if msg.DetailsVisible == nil {
			hidden := false
			msg.DetailsVisible = &hidden
		}
		out = append(out, msg)
	}
	return out
}

// NormalizeOne wraps a single record and normalizes it.
func NormalizeOne(record models.Message) []models.Message {
	return Normalize([]models.Message{record})
}
