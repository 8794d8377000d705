// Package pattern implements the groove pattern matcher (C9): a static
// library of named 16-step drum patterns and a weighted-F1 scorer that
// ranks a library against an observed hit set.
package pattern

import "github.com/rhythmforge/rhythmcore/internal/rhythm"

// Library is the built-in set of reference grooves, one or more per genre
// the heuristic in internal/genre recognizes.
var Library = []rhythm.Pattern{
	{
		ID: "edm_four_on_floor", DisplayName: "EDM Four-on-the-Floor", GenreTag: "edm",
		Description: "kick on every quarter, offbeat open hats, clap on 2 and 4",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick:  {0, 4, 8, 12},
			rhythm.HiHat: {0, 2, 4, 6, 8, 10, 12, 14},
			rhythm.Clap:  {4, 12},
		},
		Swing: 50,
	},
	{
		ID: "trap_rolling", DisplayName: "Trap Rolling Hats", GenreTag: "trap",
		Description: "sparse syncopated kick, snare on 2 and 4, rolled hi-hats",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick:  {0, 7, 10},
			rhythm.Snare: {4, 12},
			rhythm.HiHat: {0, 2, 3, 4, 6, 8, 10, 11, 12, 14},
		},
		Swing: 50,
	},
	{
		ID: "trap_basic", DisplayName: "Trap Basic", GenreTag: "trap",
		Description: "kick on 1 and 3, snare on 2 and 4, straight 16th hats",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick:  {0, 8},
			rhythm.Snare: {4, 12},
			rhythm.HiHat: {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		},
		Swing: 50,
	},
	{
		ID: "afro_foundation", DisplayName: "Afro House Foundation", GenreTag: "afro_house",
		Description: "rolling syncopated kick, shaker-heavy percussion, moderate swing",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick: {0, 3, 6, 10, 13},
			rhythm.Perc: {0, 2, 3, 5, 6, 8, 10, 11, 13, 15},
			rhythm.Clap: {4, 12},
		},
		Swing: 58,
	},
	{
		ID: "pop_basic", DisplayName: "Pop Basic Backbeat", GenreTag: "pop",
		Description: "kick on 1 and 3, snare backbeat on 2 and 4, steady 8th hats",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick:  {0, 8},
			rhythm.Snare: {4, 12},
			rhythm.HiHat: {0, 2, 4, 6, 8, 10, 12, 14},
		},
		Swing: 50,
	},
	{
		ID: "hip_hop_boom_bap", DisplayName: "Boom Bap", GenreTag: "hip_hop",
		Description: "laid-back kick, snare backbeat, swung 8th hats",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick:  {0, 10},
			rhythm.Snare: {4, 12},
			rhythm.HiHat: {0, 2, 4, 6, 8, 10, 12, 14},
		},
		Swing: 56,
	},
	{
		ID: "kpop_energetic", DisplayName: "K-Pop Energetic", GenreTag: "kpop",
		Description: "dense four-on-the-floor kick with snare fills, straight 16th hats",
		Drums: map[rhythm.DrumType][]int{
			rhythm.Kick:  {0, 4, 8, 12},
			rhythm.Snare: {4, 12},
			rhythm.HiHat: {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		},
		Swing: 50,
	},
}
