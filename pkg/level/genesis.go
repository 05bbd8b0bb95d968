package level

import (
	_ "embed"
	"sync"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

//go:embed genesis.yaml
var genesisYAML []byte

var (
	genesisOnce sync.Once
	genesis     *tree.Node
)

// Genesis returns the pristine world. The tree is decoded once and shared;
// like every tree it must not be modified.
func Genesis() *tree.Node {
	genesisOnce.Do(func() {
		root, err := tree.Decode(genesisYAML)
		if err != nil {
			panic("level: genesis: " + err.Error())
		}
		genesis = tree.MustValid(root)
	})
	return genesis
}
