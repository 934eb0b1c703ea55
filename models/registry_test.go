package models

import (
	"testing"

	"github.com/nvr-ai/go-censor/models/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Name: model.ModelNameNudeNet, Path: "n.onnx"})
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameNudeNet, m.Options().Name)
	assert.Equal(t, "n.onnx", m.Options().Path)

	m, err = NewModel(model.NewModelArgs{})
	require.NoError(t, err, "empty name selects the default model")
	assert.Equal(t, model.ModelFamilyNudeNet, m.Options().Family)

	_, err = NewModel(model.NewModelArgs{Name: "yolov4"})
	assert.Error(t, err)
}

func TestClassManager(t *testing.T) {
	mgr := DefaultClassManager()

	name, err := mgr.GetName(model.ModelFamilyNudeNet, 3)
	require.NoError(t, err)
	assert.Equal(t, "FEMALE_BREAST_EXPOSED", name)

	idx, err := mgr.GetIndex(model.ModelFamilyNudeNet, "FACE_MALE")
	require.NoError(t, err)
	assert.Equal(t, 12, idx)

	indices, err := mgr.GetIndices(model.ModelFamilyNudeNet, []string{"ANUS_EXPOSED", "FEET_COVERED"})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 9}, indices)

	_, err = mgr.GetIndices(model.ModelFamilyNudeNet, []string{"FACE_MALE", "NOPE"})
	assert.Error(t, err)

	_, err = mgr.GetName(model.ModelFamilyNudeNet, 18)
	assert.Error(t, err)

	_, err = mgr.GetName("coco", 0)
	assert.Error(t, err)
}

func TestLookupName(t *testing.T) {
	assert.Equal(t, "BUTTOCKS_COVERED", LookupName(model.ModelFamilyNudeNet, 17))
	assert.Equal(t, "", LookupName(model.ModelFamilyNudeNet, 99))
	assert.Equal(t, "", LookupName("voc", 0))
}
