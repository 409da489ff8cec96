package vision

import (
	"fmt"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
)

// Detection is one face found in a frame, in source pixel coordinates.
type Detection struct {
	Box       Box
	Score     float32
	Landmarks [5][2]float32
}

// Box is an axis-aligned rectangle: X1,Y1 top-left and X2,Y2 bottom-right.
type Box struct {
	X1, Y1, X2, Y2 float32
}

func (b Box) Width() float32  { return b.X2 - b.X1 }
func (b Box) Height() float32 { return b.Y2 - b.Y1 }

func (b Box) Area() float32 {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return 0
	}
	return b.Width() * b.Height()
}

// IoU is the intersection-over-union of two boxes.
func (b Box) IoU(o Box) float32 {
	inter := Box{
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
		X2: min(b.X2, o.X2),
		Y2: min(b.Y2, o.Y2),
	}.Area()
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// SCRFD det_10g decodes three feature maps with two anchors per cell.
var detectStrides = [3]int{8, 16, 32}

const (
	detectInputSize  = 640
	anchorsPerCell   = 2
	nmsIoUThreshold  = 0.4
	detectInputName  = "input.1"
	landmarkCoords   = 10
	detectOutputKind = 3 // scores, boxes, landmarks
)

// det_10g output names, grouped as scores, boxes, landmarks per stride.
var detectOutputNames = [detectOutputKind][3]string{
	{"448", "471", "494"},
	{"451", "474", "497"},
	{"454", "477", "500"},
}

// Detector runs the SCRFD face detector.
type Detector struct {
	session   *ort.AdvancedSession
	input     *ort.Tensor[float32]
	outputs   [detectOutputKind][3]*ort.Tensor[float32]
	threshold float32
}

func NewDetector(modelPath string, threshold float32) (*Detector, error) {
	d := &Detector{threshold: threshold}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, detectInputSize, detectInputSize))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	d.input = input

	widths := [detectOutputKind]int64{1, 4, landmarkCoords}
	var names []string
	var values []ort.Value
	for kind := 0; kind < detectOutputKind; kind++ {
		for si, stride := range detectStrides {
			cells := int64(detectInputSize/stride) * int64(detectInputSize/stride) * anchorsPerCell
			t, err := ort.NewEmptyTensor[float32](ort.NewShape(cells, widths[kind]))
			if err != nil {
				d.Close()
				return nil, fmt.Errorf("create output tensor %s: %w", detectOutputNames[kind][si], err)
			}
			d.outputs[kind][si] = t
			names = append(names, detectOutputNames[kind][si])
			values = append(values, t)
		}
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{detectInputName}, names,
		[]ort.Value{input}, values, nil)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create detector session: %w", err)
	}
	d.session = session
	return d, nil
}

// Detect runs the model on a CHW tensor produced by DetectorInput and returns
// faces in the coordinates of an origW x origH source, best score first.
func (d *Detector) Detect(chw []float32, origW, origH int) ([]Detection, error) {
	copy(d.input.GetData(), chw)
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("run detection: %w", err)
	}

	scaleX := float32(origW) / detectInputSize
	scaleY := float32(origH) / detectInputSize

	var found []Detection
	for si, stride := range detectStrides {
		found = decodeStride(found, stride,
			d.outputs[0][si].GetData(), d.outputs[1][si].GetData(), d.outputs[2][si].GetData(),
			d.threshold, scaleX, scaleY, float32(origW), float32(origH))
	}
	return suppress(found, nmsIoUThreshold), nil
}

// decodeStride appends the detections of one feature map. Box and landmark
// outputs are distances from the anchor centre in units of the stride.
func decodeStride(dst []Detection, stride int, scores, boxes, marks []float32, threshold, scaleX, scaleY, maxX, maxY float32) []Detection {
	cells := detectInputSize / stride
	st := float32(stride)

	for i, score := range scores {
		if score < threshold {
			continue
		}
		cell := i / anchorsPerCell
		cx := float32(cell%cells) * st
		cy := float32(cell/cells) * st

		b := boxes[i*4 : i*4+4]
		det := Detection{
			Score: score,
			Box: Box{
				X1: clamp((cx-b[0]*st)*scaleX, 0, maxX),
				Y1: clamp((cy-b[1]*st)*scaleY, 0, maxY),
				X2: clamp((cx+b[2]*st)*scaleX, 0, maxX),
				Y2: clamp((cy+b[3]*st)*scaleY, 0, maxY),
			},
		}
		m := marks[i*landmarkCoords : i*landmarkCoords+landmarkCoords]
		for p := 0; p < 5; p++ {
			det.Landmarks[p] = [2]float32{(cx + m[p*2]*st) * scaleX, (cy + m[p*2+1]*st) * scaleY}
		}
		dst = append(dst, det)
	}
	return dst
}

// suppress applies greedy non-maximum suppression, keeping the highest
// scoring box of each overlapping group.
func suppress(dets []Detection, iouThreshold float32) []Detection {
	sort.Slice(dets, func(i, j int) bool { return dets[i].Score > dets[j].Score })

	var kept []Detection
	for _, d := range dets {
		overlaps := false
		for _, k := range kept {
			if k.Box.IoU(d.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}
	return kept
}

func (d *Detector) Close() {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.input != nil {
		d.input.Destroy()
	}
	for _, group := range d.outputs {
		for _, t := range group {
			if t != nil {
				t.Destroy()
			}
		}
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
