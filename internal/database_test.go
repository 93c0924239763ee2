package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStation_Validate(t *testing.T) {
	tests := []struct {
		name      string
		station   Station
		expectErr bool
	}{
		{
			name:    "valid station",
			station: TestStation,
		},
		{
			name: "empty station ID",
			station: Station{
				StationID: "",
				Name:      "Central",
			},
			expectErr: true,
		},
		{
			name: "empty name",
			station: Station{
				StationID: "st-001",
				Name:      "",
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.station.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrain_Validate(t *testing.T) {
	tests := []struct {
		name      string
		train     Train
		expectErr bool
	}{
		{
			name:  "valid train",
			train: TestTrain,
		},
		{
			name: "missing route",
			train: Train{
				ID:        "train-002",
				Name:      "Evening Express",
				Direction: "down",
			},
			expectErr: true,
		},
		{
			name: "bad direction",
			train: Train{
				ID:        "train-002",
				Name:      "Evening Express",
				RouteID:   "route-001",
				Direction: "sideways",
			},
			expectErr: true,
		},
		{
			name: "missing name",
			train: Train{
				ID:        "train-002",
				RouteID:   "route-001",
				Direction: "up",
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.train.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrainStoppage_Validate(t *testing.T) {
	tests := []struct {
		name      string
		stoppage  TrainStoppage
		expectErr bool
	}{
		{
			name:     "valid stoppage",
			stoppage: TestStoppage,
		},
		{
			name: "times may be empty",
			stoppage: TrainStoppage{
				TrainID:   "train-001",
				StationID: "st-002",
			},
		},
		{
			name: "missing station",
			stoppage: TrainStoppage{
				TrainID:       "train-001",
				UpArrivalTime: "08:00",
			},
			expectErr: true,
		},
		{
			name: "malformed up time",
			stoppage: TrainStoppage{
				TrainID:       "train-001",
				StationID:     "st-002",
				UpArrivalTime: "8am",
			},
			expectErr: true,
		},
		{
			name: "malformed down time",
			stoppage: TrainStoppage{
				TrainID:         "train-001",
				StationID:       "st-002",
				DownArrivalTime: "25:10",
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stoppage.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoute_Validate(t *testing.T) {
	valid := Route{ID: "route-001", Name: "Blue Line"}
	assert.NoError(t, valid.Validate())

	missingID := Route{Name: "Blue Line"}
	assert.Error(t, missingID.Validate())

	missingName := Route{ID: "route-001"}
	assert.Error(t, missingName.Validate())
}
