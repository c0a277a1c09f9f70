package main

const configTemplate = `# League Phase Draw Configuration
# ===============================
# This file defines the teams and rules for drawing a league phase.
# The teams below are the 2024/25 Champions League pots.

# Pots in seeding order. Every pot must have the same number of teams
# (at least 3). Each team meets one home and one away opponent from every
# pot, its own included. Team names must be unique across all pots.
#
# elo and coefficient are only used to report how strong each team's
# opponents turned out to be.
pots:
  - name: Pot 1
    teams:
      - {name: Real Madrid, country: ESP, elo: 1985, coefficient: 136}
      - {name: Manchester City, country: ENG, elo: 2057, coefficient: 148}
      - {name: Bayern München, country: GER, elo: 1904, coefficient: 144}
      - {name: Paris Saint-Germain, country: FRA, elo: 1893, coefficient: 116}
      - {name: Liverpool, country: ENG, elo: 1908, coefficient: 114}
      - {name: Inter, country: ITA, elo: 1960, coefficient: 101}
      - {name: Borussia Dortmund, country: GER, elo: 1874, coefficient: 97}
      - {name: RB Leipzig, country: GER, elo: 1849, coefficient: 97}
      - {name: Barcelona, country: ESP, elo: 1894, coefficient: 91}
  - name: Pot 2
    teams:
      - {name: Bayer Leverkusen, country: GER, elo: 1929, coefficient: 90}
      - {name: Atlético de Madrid, country: ESP, elo: 1830, coefficient: 89}
      - {name: Atalanta, country: ITA, elo: 1879, coefficient: 81}
      - {name: Juventus, country: ITA, elo: 1839, coefficient: 80}
      - {name: Benfica, country: POR, elo: 1824, coefficient: 79}
      - {name: Arsenal, country: ENG, elo: 1957, coefficient: 72}
      - {name: Club Brugge, country: BEL, elo: 1703, coefficient: 64}
      - {name: Shakhtar Donetsk, country: UKR, elo: 1573, coefficient: 63}
      - {name: Milan, country: ITA, elo: 1821, coefficient: 59}
  - name: Pot 3
    teams:
      - {name: Feyenoord, country: NED, elo: 1747, coefficient: 57}
      - {name: Sporting CP, country: POR, elo: 1824, coefficient: 54.5}
      - {name: PSV Eindhoven, country: NED, elo: 1794, coefficient: 54}
      - {name: Dinamo Zagreb, country: CRO, elo: 1565, coefficient: 50}
      - {name: Salzburg, country: AUT, elo: 1693, coefficient: 50}
      - {name: Lille, country: FRA, elo: 1785, coefficient: 47}
      - {name: Crvena zvezda, country: SRB, elo: 1734, coefficient: 40}
      - {name: Young Boys, country: SUI, elo: 1554, coefficient: 34.5}
      - {name: Celtic, country: SCO, elo: 1646, coefficient: 32}
  - name: Pot 4
    teams:
      - {name: Slovan Bratislava, country: SVK, elo: 1503, coefficient: 30.5}
      - {name: Monaco, country: FRA, elo: 1780, coefficient: 24}
      - {name: Sparta Praha, country: CZE, elo: 1716, coefficient: 22.5}
      - {name: Aston Villa, country: ENG, elo: 1772, coefficient: 20.86}
      - {name: Bologna, country: ITA, elo: 1777, coefficient: 18.056}
      - {name: Girona, country: ESP, elo: 1791, coefficient: 17.897}
      - {name: VfB Stuttgart, country: GER, elo: 1795, coefficient: 17.324}
      - {name: Sturm Graz, country: AUT, elo: 1615, coefficient: 14.5}
      - {name: Brest, country: FRA, elo: 1712, coefficient: 13.366}

# Rules are hard constraints. Teams from the same country never meet.
rules:
  max_opponents_per_country: 2   # 0 disables the cap

# Draw settings. All of them are optional.
draw:
  # seed: 2024                   # Fixed seed for a reproducible draw; --seed overrides
  team_order: shuffled           # "listed" or "shuffled" (order within each pot)

  # How hard each candidate pair is checked before it is offered. Every pair
  # offered for a pot is one the draw can pick.
  #   none     - offer any admissible pair; dead ends are fixed by backtracking.
  #              With these pots about one draw in ten runs out of restarts
  #              and is reported infeasible.
  #   forward  - drop pairs that leave some open slot without a partner.
  #              Draws complete but still backtrack a lot behind the scenes.
  #   complete - also search for a full completion of every pair (bounded by
  #              search_budget). Almost never backtracks, several times slower.
  lookahead: forward

  max_backtracks: 2000           # Backtracks per attempt before restarting
  max_restarts: 25               # Restarts before the draw is reported infeasible
  search_budget: 5000            # Nodes per completion search (complete lookahead)
`
