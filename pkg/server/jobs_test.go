package server

import (
	"DigitNet/pkg/network"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobManager_Lifecycle(t *testing.T) {
	m := NewJobManager()
	assert.Equal(t, network.StateIdle, m.Status().State)

	id, done, err := m.Begin([]int{4, 2}, network.Hyperparameters{LearningRate: 0.1, Epochs: 10})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	_, _, err = m.Begin([]int{4, 2}, network.DefaultHyperparameters())
	assert.ErrorIs(t, err, ErrJobRunning)

	m.Progress(network.Progress{Epoch: 5, Epochs: 10, Loss: 0.7})
	assert.Equal(t, 5, m.Status().Epoch)

	m.Finish(0.9, 0.8, nil)
	<-done
	status := m.Status()
	assert.Equal(t, network.StateCompleted, status.State)
	assert.Equal(t, 0.9, status.TrainAccuracy)
	assert.NotEmpty(t, status.FinishedAt)

	_, done, err = m.Begin([]int{4, 2}, network.DefaultHyperparameters())
	require.NoError(t, err)
	m.Finish(0, 0, errors.New("boom"))
	<-done
	assert.Equal(t, network.StateFailed, m.Status().State)
	assert.Equal(t, "boom", m.Status().Error)
}
