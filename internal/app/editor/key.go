package editor

import "strconv"

func stateKey(language string, generation int) string {
	return language + "-" + strconv.Itoa(generation)
}
