package game

import (
	"math/rand"
	"strings"
)

const sprintWordCount = 50

var passages = []string{
	"The quick brown fox jumps over the lazy dog while the farmer watches from the porch and wonders why the dog never chases anything at all.",
	"Every great developer you know got there by solving problems they were unqualified to solve until they actually did it.",
	"A journey of a thousand miles begins with a single step, but it is the steady rhythm of the steps that follow that carries you home.",
	"The harbor lights flickered across the water as the last ferry of the evening pulled away, leaving only the sound of gulls and rope against wood.",
	"Simple things should be simple, complex things should be possible, and the line between the two is where most of the interesting work happens.",
}

var commonWords = strings.Fields(`
the be to of and a in that have it for not on with he as you do at this but his by from
they we say her she or an will my one all would there their what so up out if about who
get which go me when make can like time no just him know take people into year your good
some could them see other than then now look only come its over think also back after use
two how our work first well way even new want because any these give day most us
`)

// pickPassage selects one fixed passage for a text race.
func pickPassage(rng *rand.Rand) string {
	return passages[rng.Intn(len(passages))]
}

// sprintWords draws n words with replacement from the common word pool.
func sprintWords(rng *rand.Rand, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = commonWords[rng.Intn(len(commonWords))]
	}
	return strings.Join(words, " ")
}
