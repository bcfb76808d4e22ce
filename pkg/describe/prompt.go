package describe

import "github.com/menta2k/sys2doc/pkg/types"

// Prompt is sent verbatim with every image
const Prompt = " The provided image relates to a system." +
	" The system's image could be of any type, such as architecture diagram, flowchart, state machine, and so on." +
	" Based SOLELY on the image, describe the system and its different components in detail." +
	" You should not use any prior knowledge except for universal truths." +
	" If relevant, describe how the relevant components interact and how information flows." +
	" In case the image contains or relates to anything inappropriate" +
	" including, but not limited to, violence, hatred, malice, and criminality," +
	" DO NOT generate an answer and simply say that you are not allowed to describe."

// DefaultGeneration is deterministic and capped at 2048 output tokens
var DefaultGeneration = types.GenerationConfig{
	Temperature:      0,
	TopP:             0.5,
	TopK:             10,
	MaxOutputTokens:  2048,
	ResponseMIMEType: "text/plain",
}

// DefaultSafety blocks medium and above for every supported category
var DefaultSafety = []types.SafetySetting{
	{Category: types.HarmHarassment, Threshold: types.BlockMediumAndAbove},
	{Category: types.HarmHateSpeech, Threshold: types.BlockMediumAndAbove},
	{Category: types.HarmSexuallyExplicit, Threshold: types.BlockMediumAndAbove},
	{Category: types.HarmDangerousContent, Threshold: types.BlockMediumAndAbove},
}
