package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/fogleman/gg"
	"github.com/vidtag/vidtag/pkg/anno"
	"github.com/vidtag/vidtag/server/timeline"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("drawpath", "Render an annotation's motion path to a PNG")
	input := parser.String("i", "input", &argparse.Options{Help: "Bounding box sequence JSON file", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Output PNG file", Required: false, Default: "path.png"})
	width := parser.Int("", "width", &argparse.Options{Help: "Canvas width, in video pixels", Required: false, Default: 1280})
	height := parser.Int("", "height", &argparse.Options{Help: "Canvas height, in video pixels", Required: false, Default: 720})
	timelineOut := parser.String("t", "timeline", &argparse.Options{Help: "Also render a timeline strip to this PNG", Required: false, Default: ""})
	playhead := parser.Int("f", "frame", &argparse.Options{Help: "Playhead frame for the timeline strip", Required: false, Default: 0})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	raw, err := os.ReadFile(*input)
	check(err)
	seq := &anno.Sequence{}
	check(json.Unmarshal(raw, seq))
	check(seq.Normalize())

	path := anno.ProjectMotionPath(seq)

	dc := gg.NewContext(*width, *height)
	dc.SetRGB(0.07, 0.07, 0.08)
	dc.Clear()

	// Trajectory polyline, broken where the object is hidden
	dc.SetRGB(0.3, 0.8, 0.4)
	dc.SetLineWidth(2)
	started := false
	for _, p := range path {
		if p.Break {
			dc.Stroke()
			started = false
		}
		if started {
			dc.LineTo(float64(p.X), float64(p.Y))
		} else {
			dc.MoveTo(float64(p.X), float64(p.Y))
			started = true
		}
	}
	dc.Stroke()

	// Keyframes get a marker dot
	dc.SetRGB(0.95, 0.75, 0.2)
	for _, p := range path {
		if p.IsKeyframe {
			dc.DrawCircle(float64(p.X), float64(p.Y), 4)
			dc.Fill()
		}
	}

	check(gg.SavePNG(*output, dc.Image()))
	logger.Infof("Wrote %v", *output)

	if *timelineOut != "" {
		tr := timeline.NewRenderer(logger, seq, *width, 60)
		img, _, err := tr.Render(timeline.RenderOptions{
			CurrentFrame: *playhead,
			Zoom:         1,
			Theme:        timeline.DefaultTheme(),
		})
		check(err)
		check(gg.SavePNG(*timelineOut, img))
		logger.Infof("Wrote %v", *timelineOut)
	}
}
