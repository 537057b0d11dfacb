package pgp

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode/utf8"
)

// DefaultBlockSize is the length plaintext is padded towards before encryption.
const DefaultBlockSize = 512

const paddingPrefix = "\n\n(Random text generated by Hush Line: lorum ipsum "

// AddPadding hides the length of value by appending random words until it
// reaches the next multiple of blockSize characters.
func AddPadding(value string, blockSize int) string {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	value += paddingPrefix
	target := blockSize - utf8.RuneCountInString(value)%blockSize

	var padding strings.Builder
	for padding.Len() < target {
		padding.WriteString(randomWord())
		padding.WriteByte(' ')
	}
	padding.WriteByte(')')

	return value + padding.String()
}

func randomWord() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(paddingWords))))
	if err != nil {
		panic("pgp: crypto/rand unavailable: " + err.Error())
	}
	return paddingWords[n.Int64()]
}

var paddingWords = []string{
	"abacus", "acorn", "agenda", "almond", "anchor", "anvil", "apron", "arcade",
	"badge", "bamboo", "banjo", "barley", "basket", "beacon", "bison", "blanket",
	"cabin", "cactus", "candle", "canyon", "carbon", "cedar", "cobalt", "comet",
	"dagger", "daisy", "delta", "denim", "diesel", "dolphin", "domino", "dune",
	"easel", "echo", "ember", "engine", "estate", "fabric", "falcon", "fathom",
	"fennel", "ferry", "fossil", "gadget", "galaxy", "garnet", "gecko", "glacier",
	"harbor", "hazel", "helium", "hermit", "hollow", "igloo", "indigo", "island",
	"jasper", "jigsaw", "kettle", "kiwi", "lagoon", "lantern", "lemon", "lotus",
	"magnet", "maple", "marble", "meadow", "mosaic", "nectar", "nickel", "nutmeg",
	"oasis", "olive", "onyx", "orbit", "paddle", "pebble", "pepper", "pilot",
	"quartz", "quiver", "radish", "raven", "ribbon", "saddle", "salmon", "sequel",
	"tandem", "thistle", "timber", "tundra", "velvet", "walnut", "willow", "zephyr",
}
