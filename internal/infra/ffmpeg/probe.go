package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// StreamInfo describes the first video stream of a file. Width and Height
// are the displayed size, after any rotation ffmpeg applies on decode.
type StreamInfo struct {
	Width      int
	Height     int
	Rotation   int
	FPS        float64
	FrameCount int
	Duration   float64
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func probe(ctx context.Context, ffprobePath, videoPath string) (StreamInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames,duration:stream_tags=rotate:stream_side_data=rotation:format=duration",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(data []byte) (StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return StreamInfo{}, fmt.Errorf("no video stream")
	}
	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return StreamInfo{}, fmt.Errorf("invalid frame size %dx%d", s.Width, s.Height)
	}

	fps, err := parseRate(s.AvgFrameRate)
	if err != nil || fps <= 0 {
		fps, err = parseRate(s.RFrameRate)
		if err != nil {
			return StreamInfo{}, fmt.Errorf("frame rate: %w", err)
		}
	}

	info := StreamInfo{Width: s.Width, Height: s.Height, FPS: fps}
	// Display matrix side data wins over the legacy rotate tag.
	info.Rotation, _ = strconv.Atoi(s.Tags.Rotate)
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			info.Rotation = int(math.Round(sd.Rotation))
		}
	}
	info.Rotation = normalizeRotation(info.Rotation)
	if info.Rotation == 90 || info.Rotation == 270 {
		info.Width, info.Height = info.Height, info.Width
	}
	info.Duration, _ = strconv.ParseFloat(firstNonEmpty(s.Duration, out.Format.Duration), 64)
	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.FrameCount = n
	} else if info.Duration > 0 {
		info.FrameCount = int(math.Round(info.Duration * fps))
	}
	return info, nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or "25".
func parseRate(s string) (float64, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("parse rate %q: zero denominator", s)
	}
	return n / d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" && v != "N/A" {
			return v
		}
	}
	return ""
}

// normalizeRotation maps any multiple-of-90 angle into [0, 360).
func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
