// Package raice evolves neural-network drivers for vehicles racing around a closed-loop track.
//
// Every vehicle reads ray-cast distance sensors plus its speed and lateral track
// offset. A feed-forward network encoded by the vehicle's genome maps those
// readings to steering, throttle and brake. After each episode a vehicle is
// scored by distance travelled minus a time penalty, and the scores drive
// selection, crossover and mutation of the next generation.
//
// Physics, rendering and ray casting belong to an external collaborator that
// implements sim.World; the sim package ships a small kinematic world for
// experiments and tests.
//
// Basic usage:
//
//	// Load configuration
//	config, err := raice.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Build the track and a trainer over a world implementation
//	trk, err := sim.NewTrack(config.Track)
//	if err != nil {
//		log.Fatalf("Error building track: %v", err)
//	}
//	trainer, err := sim.NewTrainer(config, trk, sim.NewKinematicWorld(trk, config.Sensors, sim.DefaultKinematicConfig()))
//	if err != nil {
//		log.Fatalf("Error creating trainer: %v", err)
//	}
//
//	// Run generations until the fitness threshold is met
//	for i := 0; i < config.Evolution.Generations; i++ {
//		report, err := trainer.RunGeneration(ctx)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		if report.Solved {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package raice
