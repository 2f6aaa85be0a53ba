package service_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/okian/draftlens/internal/adapters/repository"
	"github.com/okian/draftlens/internal/domain/classifier"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
)

const snapshotJSON = `{
  "heroes": [
    {"id": 1, "name": "lina", "displayName": "Lina", "winrate": 0.52, "pickRate": 10},
    {"id": 2, "name": "crystal_maiden", "displayName": "Crystal Maiden", "winrate": 0.49, "pickRate": 20}
  ],
  "abilities": [
    {"name": "lina_dragon_slave", "displayName": "Dragon Slave", "heroId": 1, "abilityOrder": 1, "winrate": 0.51, "pickRate": 12},
    {"name": "fireball", "displayName": "Fireball", "heroId": 1, "abilityOrder": 2, "winrate": 0.55, "pickRate": 4},
    {"name": "crystal_nova", "displayName": "Crystal Nova", "heroId": 2, "abilityOrder": 2, "winrate": 0.5, "pickRate": 18},
    {"name": "ice_blast", "displayName": "Ice Blast", "heroId": 2, "abilityOrder": 4, "isUltimate": true, "winrate": 0.53, "pickRate": 6}
  ],
  "abilityPairs": [
    {"ability1": "fireball", "ability2": "ice_blast", "synergyWinrate": 0.66},
    {"ability1": "crystal_nova", "ability2": "lina_dragon_slave", "synergyWinrate": 0.40}
  ],
  "heroAbilitySynergies": [
    {"heroId": 1, "abilityName": "ice_blast", "synergyWinrate": 0.64},
    {"heroId": 2, "abilityName": "fireball", "synergyWinrate": 0.42}
  ]
}`

// Class index i is painted as red channel i; 0 is an empty slot.
const classNamesJSON = `["blank","ice_blast","fireball","lina_dragon_slave","crystal_nova"]`

const (
	redIceBlast  = 1
	redFireball  = 2
	redDragon    = 3
	redCrystal   = 4
	screenWidth  = 200
	screenHeight = 100
)

func testLayout() layout.Layout {
	sq := func(x, y, hero, order int, ult bool) model.SlotCoordinate {
		return model.SlotCoordinate{X: x, Y: y, Width: 20, Height: 20, HeroOrder: hero, AbilityOrder: order, IsUltimate: ult}
	}
	return layout.Layout{
		UltimateSlots: []model.SlotCoordinate{sq(0, 0, 0, 0, true)},
		StandardSlots: []model.SlotCoordinate{
			sq(30, 0, 0, 1, false),
			sq(60, 0, 0, 2, false),
			sq(90, 0, 1, 2, false),
		},
		Models:            []model.SlotCoordinate{sq(0, 50, 0, 0, false), sq(30, 50, 1, 0, false)},
		Heroes:            []model.SlotCoordinate{sq(0, 75, 0, 0, false), sq(30, 75, 1, 0, false)},
		SelectedAbilities: []model.SlotCoordinate{sq(150, 50, 0, 0, false)},
	}
}

func testStore(t *testing.T) *repository.SnapshotStore {
	t.Helper()
	snap, err := repository.DecodeSnapshot(strings.NewReader(snapshotJSON))
	if err != nil {
		t.Fatal(err)
	}
	s := repository.NewSnapshotStore()
	if err := s.Replace(snap); err != nil {
		t.Fatal(err)
	}
	return s
}

func writeClassNames(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "class_names.json")
	if err := os.WriteFile(p, []byte(classNamesJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

// screenshot paints each slot with the red value of its class.
func screenshot(t *testing.T, w, h int, paint map[model.SlotCoordinate]uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for c, red := range paint {
		for y := c.Y; y < c.Y+c.Height; y++ {
			for x := c.X; x < c.X+c.Width; x++ {
				img.SetRGBA(x, y, color.RGBA{R: red, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// initialShot shows the full pool: ultimate ice_blast, lina's dragon slave
// and fireball, crystal maiden's crystal nova. Nothing is picked yet.
func initialShot(t *testing.T) []byte {
	l := testLayout()
	return screenshot(t, screenWidth, screenHeight, map[model.SlotCoordinate]uint8{
		l.UltimateSlots[0]: redIceBlast,
		l.StandardSlots[0]: redDragon,
		l.StandardSlots[1]: redFireball,
		l.StandardSlots[2]: redCrystal,
	})
}

// afterFireballPick shows fireball gone from the pool and in hero 0's picks.
func afterFireballPick(t *testing.T) []byte {
	l := testLayout()
	return screenshot(t, screenWidth, screenHeight, map[model.SlotCoordinate]uint8{
		l.UltimateSlots[0]:     redIceBlast,
		l.StandardSlots[0]:     redDragon,
		l.StandardSlots[2]:     redCrystal,
		l.SelectedAbilities[0]: redFireball,
	})
}

// fakeSession reads the class from the red channel of each image. Blank
// images score below any useful threshold. When gate is set, scan batches
// wait on it.
type fakeSession struct {
	classes int
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (f *fakeSession) Run(input []float32, batch int) ([]float32, error) {
	if batch > 1 && f.gate != nil {
		f.once.Do(func() { close(f.entered) })
		<-f.gate
	}
	out := make([]float32, batch*f.classes)
	for b := 0; b < batch; b++ {
		red := int(input[b*classifier.ImageLen])
		p := float32(0.99)
		if red == 0 {
			p = 0.2
		}
		out[b*f.classes+red%f.classes] = p
	}
	return out, nil
}

func (f *fakeSession) Provider() string { return "cpu" }
func (f *fakeSession) Close() error     { return nil }

func factoryFor(sess *fakeSession) classifier.SessionFactory {
	return func(string, bool) (classifier.Session, error) { return sess, nil }
}
