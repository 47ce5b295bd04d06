package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeliveryParams() NewDeliveryParams {
	return NewDeliveryParams{
		Supplier: "Dairy Co",
		Lines: []NewDeliveryLineParams{
			{ProductName: "Milk", LotNumber: "M-1", Unit: UnitLitre, Qty: 5},
			{ProductName: "Cream", LotNumber: "C-1", Unit: UnitLitre, Qty: 2.00049},
			{ProductName: "Napkins", Unit: UnitCount, Qty: 100, Untracked: true},
		},
	}
}

func TestNewDelivery(t *testing.T) {
	d, err := NewDelivery("t1", "r1", sampleDeliveryParams())
	require.NoError(t, err)

	require.Len(t, d.Lines, 3)
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.ReceivedAt.IsZero())
	for _, l := range d.Lines {
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, l.Qty, l.QtyRemaining)
	}
	assert.Equal(t, 2.0, d.Lines[1].Qty, "line quantities are rounded")
}

func TestNewDelivery_Validation(t *testing.T) {
	p := sampleDeliveryParams()
	p.Supplier = ""
	_, err := NewDelivery("t1", "", p)
	assert.ErrorIs(t, err, ErrSupplierMissing)

	p = sampleDeliveryParams()
	p.Lines = nil
	_, err = NewDelivery("t1", "", p)
	assert.ErrorIs(t, err, ErrNoDeliveryLines)

	p = sampleDeliveryParams()
	p.Lines[0].LotNumber = ""
	_, err = NewDelivery("t1", "", p)
	assert.True(t, errors.Is(err, ErrLotNumberMissing))

	p = sampleDeliveryParams()
	p.Lines[1].Unit = "gallon"
	_, err = NewDelivery("t1", "", p)
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestDelivery_LineLookup(t *testing.T) {
	d, err := NewDelivery("t1", "", sampleDeliveryParams())
	require.NoError(t, err)

	assert.Equal(t, 1, d.LineIndex(d.Lines[1].ID))
	assert.Equal(t, -1, d.LineIndex("missing"))
	assert.Equal(t, -1, d.LineIndex(""))

	assert.Equal(t, 0, d.MatchLineIndex("M-1", "Milk", UnitLitre))
	assert.Equal(t, -1, d.MatchLineIndex("M-1", "Milk", UnitMillilitre), "unit is part of the match")

	params := d.LotParams(0, "chef")
	assert.Equal(t, d.ID, params.ReceptionID)
	assert.Equal(t, d.Lines[0].ID, params.ReceptionLineID)
	assert.Equal(t, "Dairy Co", params.Supplier)
	assert.Equal(t, 5.0, params.QtyReceived)
}
