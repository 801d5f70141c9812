// Package display renders plans, fix suggestions and retry decisions for
// the terminal.
//
// Every renderer takes an io.Writer and a useColor flag; callers decide
// colour once with ColorEnabled. Colour comes from fatih/color, so NO_COLOR
// disables it globally.
//
//	useColor := display.ColorEnabled(os.Stdout)
//	display.RenderPlan(os.Stdout, plan, useColor)
//
// Warning boxes are used for conditions the user should act on, such as a
// plan that needs approval or a step waiting on a dependency no step
// provides.
package display
