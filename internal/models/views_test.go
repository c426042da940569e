package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserSummaryJSON(t *testing.T) {
	id := primitive.NewObjectID()

	b, err := json.Marshal(BookingView{User: &UserSummary{ID: id}})
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, id.Hex(), raw["user"])

	var ref BookingView
	require.NoError(t, json.Unmarshal(b, &ref))
	assert.Equal(t, &UserSummary{ID: id}, ref.User)

	full := &UserSummary{ID: id, Name: "Alice", Email: "alice@ayush.test"}
	b, err = json.Marshal(OrderView{User: full})
	require.NoError(t, err)
	var populated OrderView
	require.NoError(t, json.Unmarshal(b, &populated))
	assert.Equal(t, full, populated.User)
}
