package commands

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var niches = []string{"fitness", "food", "travel", "fashion", "tech", "beauty", "gaming", "business"}

// performanceFactors drive the synthetic engagement numbers per niche.
type performanceFactors struct {
	baseLikes     float64
	commentRatio  float64
	followerRatio float64
}

var nicheFactors = map[string]performanceFactors{
	"fitness":  {baseLikes: 800, commentRatio: 0.04, followerRatio: 0.008},
	"food":     {baseLikes: 1200, commentRatio: 0.05, followerRatio: 0.01},
	"travel":   {baseLikes: 1500, commentRatio: 0.06, followerRatio: 0.015},
	"fashion":  {baseLikes: 900, commentRatio: 0.045, followerRatio: 0.009},
	"tech":     {baseLikes: 700, commentRatio: 0.035, followerRatio: 0.007},
	"beauty":   {baseLikes: 850, commentRatio: 0.042, followerRatio: 0.0085},
	"gaming":   {baseLikes: 950, commentRatio: 0.048, followerRatio: 0.0095},
	"business": {baseLikes: 650, commentRatio: 0.032, followerRatio: 0.006},
}

var fillerWords = []string{
	"morning", "routine", "daily", "vibes", "inspo", "goals", "life", "love",
	"grind", "hustle", "fresh", "journey", "moment", "weekend", "sunset",
	"coffee", "energy", "focus", "growth", "simple", "real", "honest",
}

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var (
		count int
		out   string
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic post dataset",
		Long:  "Generate a CSV of synthetic posts with niche-dependent engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", err)
				}
			}()

			rng := rand.New(rand.NewSource(seed))
			w := csv.NewWriter(f)
			header := []string{
				"timestamp", "likes", "comments", "new_followers", "media_type",
				"hashtags", "caption", "niche",
			}
			if err := w.Write(header); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}

			now := time.Now()
			for i := 0; i < count; i++ {
				if err := w.Write(generatePost(rng, now)); err != nil {
					return fmt.Errorf("failed to write row %d: %w", i, err)
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}

			fmt.Printf("Generated %d posts in %s\n", count, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1000, "Number of posts to generate")
	cmd.Flags().StringVar(&out, "out", "synthetic_posts.csv", "Output CSV path")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")

	return cmd
}

func generatePost(rng *rand.Rand, now time.Time) []string {
	niche := niches[rng.Intn(len(niches))]
	media := pickMediaType(rng)
	hour := 7 + rng.Intn(17)

	factors := nicheFactors[niche]
	videoBoost := 1.0
	if media == "video" {
		videoBoost = 1.3
	}

	// Lognormal noise around the niche baseline, same shape as real
	// engagement distributions (long right tail).
	likes := int(factors.baseLikes * videoBoost * math.Exp(rng.NormFloat64()*0.2))
	comments := int(float64(likes) * factors.commentRatio * (1 + (rng.Float64()*0.4 - 0.2)))
	newFollowers := int(float64(likes) * factors.followerRatio * (1 + (rng.Float64()*0.3 - 0.15)))

	tags := []string{"#" + niche}
	for n := 2 + rng.Intn(4); n > 0; n-- {
		tags = append(tags, "#"+fillerWords[rng.Intn(len(fillerWords))])
	}
	hashtags := strings.Join(tags, " ")

	caption := generateCaption(rng)

	postDate := now.AddDate(0, 0, -rng.Intn(366))
	postDate = time.Date(postDate.Year(), postDate.Month(), postDate.Day(),
		hour, rng.Intn(60), 0, 0, postDate.Location())

	return []string{
		postDate.Format("2006-01-02 15:04:05"),
		strconv.Itoa(maxInt(100, likes)),
		strconv.Itoa(maxInt(5, comments)),
		strconv.Itoa(maxInt(1, newFollowers)),
		media,
		hashtags,
		caption,
		niche,
	}
}

func pickMediaType(rng *rand.Rand) string {
	// image 60%, video 30%, carousel 10%
	switch r := rng.Float64(); {
	case r < 0.6:
		return "image"
	case r < 0.9:
		return "video"
	default:
		return "carousel"
	}
}

func generateCaption(rng *rand.Rand) string {
	n := 5 + rng.Intn(11)
	words := make([]string, n)
	for i := range words {
		words[i] = fillerWords[rng.Intn(len(fillerWords))]
	}
	s := strings.Join(words, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
