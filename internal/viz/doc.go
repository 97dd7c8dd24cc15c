// Package viz renders trajectories in the terminal.
//
// [PlotComponent] and [PlotComponents] draw finished trajectories as
// ASCII charts for the plot and compare commands. [NewLive] builds a
// bubbletea model that steps a driver at the display frame rate and
// shows the running solution together with the adaptive step size.
package viz
