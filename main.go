package main

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/taskconfig"
	"github.com/armlearn/armfeat/utils/matutils"
)

const demoConfig = `
features: [table, coffee, human, efficiency]
ranges: [0.98, 2.0, 0.4, 0.01]
weights: [0.0, 0.0, 0.0, 1.0]
object_centers:
  HUMAN_CENTER: [-0.6, -0.55, 0.0]
  LAPTOP_CENTER: [-0.8, 0.0, 0.0]
`

func main() {
	config, err := taskconfig.Parse([]byte(demoConfig))
	if err != nil {
		log.Fatal(err)
	}

	registry, err := config.Registry()
	if err != nil {
		log.Fatal(err)
	}

	// A short trajectory from a candle-like start pose toward the
	// table surface
	start := matutils.VecFromDegrees([]float64{
		104.2, 151.6, 183.8, 101.8, 224.2, 216.9, 310.8,
	})
	mid := matutils.VecFromDegrees([]float64{
		120.5, 141.2, 180.1, 110.4, 230.0, 210.3, 300.0,
	})
	goal := matutils.VecFromDegrees([]float64{
		210.8, 101.6, 192.0, 114.7, 222.2, 246.1, 322.5,
	})
	traj := []mat.Vector{start, mid, goal}

	features, err := registry.Featurize(traj)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("features (rows: table, coffee, human, efficiency):")
	fmt.Println(matutils.Format(features))
	fmt.Println("weights:", registry.Weights())
}
