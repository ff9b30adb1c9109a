package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("/ClassMarks/course_math_5A/s1/")
	require.NoError(t, err)
	assert.Equal(t, "ClassMarks", p.Collection)
	assert.Equal(t, "course_math_5A", p.Key)
	assert.Equal(t, []string{"s1"}, p.Nested)
	assert.False(t, p.IsRow())
	assert.Equal(t, "ClassMarks/course_math_5A/s1", p.String())

	p, err = ParsePath("Users")
	require.NoError(t, err)
	assert.True(t, p.IsCollection())
	assert.Equal(t, "Users/u1", p.Child("u1").String())

	for _, bad := range []string{"", "/", "Users//u1", "Users/u$1", "Users/ /x"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}
