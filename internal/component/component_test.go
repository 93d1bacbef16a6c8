package component

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberline/ecscore/internal/codec"
)

func TestComponentsAreFixedLayout(t *testing.T) {
	_, err := codec.ResolveArray[Position]()
	assert.NoError(t, err)
	_, err = codec.ResolveArray[Velocity]()
	assert.NoError(t, err)
	_, err = codec.ResolveArray[Health]()
	assert.NoError(t, err)
}
