package sim

import (
	"strings"

	"github.com/appengine-ltd/survivalist-processors/internal/parser"
	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"
)

// ItemDef is a stack type the simulator can hand to a processor.
type ItemDef struct {
	Def        string
	Category   processor.Category
	Perishable bool
	Stage      processor.RotStage
}

var itemCatalog = []ItemDef{
	{Def: "raw_venison", Category: processor.CategoryMeat, Perishable: true},
	{Def: "raw_rabbit", Category: processor.CategoryMeat, Perishable: true},
	{Def: "raw_fish", Category: processor.CategoryFish, Perishable: true},
	{Def: "raw_trout", Category: processor.CategoryFish, Perishable: true},
	{Def: "spoiled_meat", Category: processor.CategoryMeat, Perishable: true, Stage: processor.RotSpoiled},
	{Def: "wood_log", Category: processor.CategoryWood},
	{Def: "berry_juice", Category: processor.CategoryJuice},
	{Def: "apple_juice", Category: processor.CategoryJuice},
	{Def: "curdled_milk", Category: processor.CategoryCurdledMilk, Perishable: true},
	{Def: "stone_chunk", Category: processor.CategoryOther},
}

// animalCatalog lists the creatures that can be lured onto a snare.
var animalCatalog = []snare.Creature{
	{Label: "squirrel", Animal: true, Wild: true, BodySize: 0.15},
	{Label: "rabbit", Animal: true, Wild: true, BodySize: 0.2},
	{Label: "hare", Animal: true, Wild: true, BodySize: 0.25},
	{Label: "fox", Animal: true, Wild: true, BodySize: 0.55},
	{Label: "boar", Animal: true, Wild: true, BodySize: 0.85},
	{Label: "elk", Animal: true, Wild: true, BodySize: 2.2},
	{Label: "dog", Animal: true, Player: true, BodySize: 0.7, Trainability: snare.TrainabilityAdvanced},
	{Label: "colonist", Player: true, BodySize: 1},
}

// ItemDefs returns every def in the catalog.
func ItemDefs() []string {
	out := make([]string, 0, len(itemCatalog))
	for _, it := range itemCatalog {
		out = append(out, it.Def)
	}
	return out
}

// AnimalLabels returns every creature that can be lured.
func AnimalLabels() []string {
	out := make([]string, 0, len(animalCatalog))
	for _, a := range animalCatalog {
		out = append(out, a.Label)
	}
	return out
}

// KindNames are the placeable building kinds as typed by a player.
func KindNames() []string {
	out := make([]string, 0, len(processor.Kinds())+1)
	for _, k := range processor.Kinds() {
		out = append(out, strings.ReplaceAll(string(k), "_", " "))
	}
	return append(out, snareKind)
}

const snareKind = "snare"

func lookupItem(name string) (ItemDef, error) {
	def, _, ok := parser.Resolve(name, ItemDefs())
	if !ok {
		return ItemDef{}, perr.WithField(perr.NotFoundf("unknown item %q", name), "item")
	}
	for _, it := range itemCatalog {
		if it.Def == def {
			return it, nil
		}
	}
	return ItemDef{}, perr.NotFoundf("unknown item %q", name)
}

func lookupAnimal(name string) (snare.Creature, error) {
	label, _, ok := parser.Resolve(name, AnimalLabels())
	if !ok {
		return snare.Creature{}, perr.WithField(perr.NotFoundf("unknown animal %q", name), "animal")
	}
	for _, a := range animalCatalog {
		if a.Label == label {
			return a, nil
		}
	}
	return snare.Creature{}, perr.NotFoundf("unknown animal %q", name)
}

// kindFromName maps "charcoal pit" or "charcoal_pit" to a processor kind.
func kindFromName(name string) (processor.Kind, error) {
	want := strings.ReplaceAll(parser.Normalise(name), " ", "_")
	for _, k := range processor.Kinds() {
		if string(k) == want {
			return k, nil
		}
	}
	return "", perr.WithField(perr.NotFoundf("unknown building kind %q", name), "kind")
}

func (d ItemDef) stack(count int) processor.Item {
	return processor.Item{
		Def:        d.Def,
		Category:   d.Category,
		Count:      count,
		Perishable: d.Perishable,
		Stage:      d.Stage,
	}
}
