package liquidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffer_IsTorRestricted(t *testing.T) {
	t.Run("no conditions means not restricted", func(t *testing.T) {
		assert.False(t, Offer{}.IsTorRestricted())
	})

	t.Run("NODE_SOCKETS NOT_EQUAL_TO TOR is restricted", func(t *testing.T) {
		o := Offer{Conditions: []Condition{
			{Condition: "NODE_SOCKETS", Operator: "NOT_EQUAL_TO", Value: "TOR"},
		}}
		assert.True(t, o.IsTorRestricted())
	})

	t.Run("NODE_SOCKETS CONTAINS CLEARNET is restricted", func(t *testing.T) {
		o := Offer{Conditions: []Condition{
			{Condition: "NODE_SOCKETS", Operator: "CONTAINS", Value: "clearnet"},
		}}
		assert.True(t, o.IsTorRestricted())
	})

	t.Run("other conditions are ignored", func(t *testing.T) {
		o := Offer{Conditions: []Condition{
			{Condition: "NODE_CAPACITY", Operator: "GREATER_THAN", Value: "1000000"},
			{Condition: "NODE_SOCKETS", Operator: "EQUAL_TO", Value: "TOR"},
		}}
		assert.False(t, o.IsTorRestricted())
	})
}

func TestTorEligible(t *testing.T) {
	offers := []Offer{
		{ID: "a"},
		{ID: "b", Conditions: []Condition{{Condition: "NODE_SOCKETS", Operator: "NOT_EQUAL_TO", Value: "TOR"}}},
		{ID: "c"},
	}

	eligible := torEligible(offers)

	assert.Len(t, eligible, 2)
	assert.Equal(t, "a", eligible[0].ID)
	assert.Equal(t, "c", eligible[1].ID)
}
