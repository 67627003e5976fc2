package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	err := Newf("pack %s not installed", "na-east-coast-2025.08").
		Category(CategoryNotFound).
		Component("regionpack").
		Context("pack_name", "na-east-coast-2025.08").
		Build()

	require.Error(t, err)
	assert.Equal(t, "pack na-east-coast-2025.08 not installed", err.Error())
	assert.Equal(t, "regionpack", err.GetComponent())
	assert.Equal(t, string(CategoryNotFound), err.GetCategory())
	assert.Equal(t, "na-east-coast-2025.08", err.GetContext()["pack_name"])
	assert.False(t, err.GetTimestamp().IsZero())
}

func TestCategoryMatching(t *testing.T) {
	inner := NewStd("boom")
	err := Wrap(inner).Category(CategoryDatabase).Build()

	assert.True(t, Is(err, inner))
	assert.True(t, IsCategory(err, CategoryDatabase))
	assert.False(t, IsCategory(err, CategoryNotFound))

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, CategoryDatabase, ee.Category)
}

func TestIsNotFound(t *testing.T) {
	err := Newf("no such species").Category(CategoryNotFound).Build()
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(NewStd("plain")))
}

func TestDefaultCategoryAndComponent(t *testing.T) {
	err := Newf("something").Build()
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
	assert.Equal(t, ComponentUnknown, err.GetComponent())
}

func TestInvalidPriorityFallsBack(t *testing.T) {
	err := Newf("x").Priority("urgent!!").Build()
	assert.Equal(t, PriorityMedium, err.GetPriority())

	err = Newf("x").Priority(PriorityCritical).Build()
	assert.Equal(t, PriorityCritical, err.GetPriority())
}
