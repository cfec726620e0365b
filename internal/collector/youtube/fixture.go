package youtube

import "fmt"

// fixtureVideo is the synthetic marker returned by searchVideos when no API
// key is configured, so the pipeline stays runnable without credentials.
func fixtureVideo(query string) Video {
	return Video{
		ID:      "offline-fixture",
		Title:   fmt.Sprintf("Offline fixture: %s", query),
		Channel: "offline",
	}
}

// fixtureDataset is the fixed comment set served in offline mode. The mix of
// positive, negative and neutral texts keeps downstream sentiment scoring
// meaningful in demos.
var fixtureDataset = []string{
	"This movie absolutely deserves the Oscar, what a masterpiece.",
	"Honestly one of the best films I have seen in years.",
	"The cinematography alone should win every award there is.",
	"Completely overrated, I walked out halfway through.",
	"Great performances but the pacing dragged in the middle.",
	"I cried three times. Three. Times.",
	"The score was haunting, I can't stop thinking about it.",
	"Not sure what the hype is about, it was fine I guess.",
	"That third act twist had the whole theater gasping.",
	"Worst movie of the year, and I watch everything.",
	"A technical marvel even if the story felt thin.",
	"My whole family loved it, even my dad who hates everything.",
	"The lead actor carried this film on their back.",
	"Beautiful to look at but emotionally hollow.",
	"Instant classic. People will study this one for decades.",
}

// fixtureComments returns up to target comments from the fixture dataset.
func fixtureComments(target int) []string {
	if target >= len(fixtureDataset) {
		return append([]string(nil), fixtureDataset...)
	}
	if target <= 0 {
		return nil
	}
	return append([]string(nil), fixtureDataset[:target]...)
}
